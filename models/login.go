package models

type LoginPostRequest struct {
	Password string `json:"password"`
}

type LoginPostResponse struct {
	// Session is sent back as a bearer token by clients that don't keep cookies.
	Session string `json:"session"`
}
