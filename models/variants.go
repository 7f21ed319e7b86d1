package models

type VariantsGetResponse struct {
	Default  string    `json:"default"`
	Variants []Variant `json:"variants"`
}

type Variant struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model"`
}
