package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/jsonapi"
	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/models"
)

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
	}
}

type Client struct {
	baseURL string
	session string
}

// WithSession reuses a session from an earlier login.
func (c *Client) WithSession(session string) *Client {
	c.session = session
	return c
}

func (c *Client) Session() string {
	return c.session
}

func (c *Client) authorization() string {
	return "Bearer " + c.session
}

func (c *Client) LoginPost(ctx context.Context, password string) (err error) {
	url, err := jsonapi.URL(c.baseURL).Path("login").String()
	if err != nil {
		return err
	}
	resp, err := jsonapi.Post[models.LoginPostRequest, models.LoginPostResponse](ctx, url, models.LoginPostRequest{Password: password})
	if err != nil {
		return statusError(err)
	}
	c.session = resp.Session
	return nil
}

func (c *Client) LogoutPost(ctx context.Context) (err error) {
	url, err := jsonapi.URL(c.baseURL).Path("logout").String()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	res, err := jsonapi.Raw(req, jsonapi.WithRequestHeader("Authorization", c.authorization()))
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if err = checkStatus(res); err != nil {
		return err
	}
	c.session = ""
	return nil
}

func (c *Client) GeneratePost(ctx context.Context, req models.GeneratePostRequest) (resp models.GeneratePostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("generate").String()
	if err != nil {
		return resp, err
	}
	resp, err = jsonapi.Post[models.GeneratePostRequest, models.GeneratePostResponse](ctx, url, req, jsonapi.WithRequestHeader("Authorization", c.authorization()))
	return resp, statusError(err)
}

func (c *Client) SuggestPost(ctx context.Context, req models.SuggestPostRequest) (resp models.SuggestPostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("suggest").String()
	if err != nil {
		return resp, err
	}
	resp, err = jsonapi.Post[models.SuggestPostRequest, models.SuggestPostResponse](ctx, url, req, jsonapi.WithRequestHeader("Authorization", c.authorization()))
	return resp, statusError(err)
}

func (c *Client) VariantsGet(ctx context.Context) (resp models.VariantsGetResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("variants").String()
	if err != nil {
		return resp, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return resp, fmt.Errorf("failed to create request: %w", err)
	}
	res, err := jsonapi.Raw(req, jsonapi.WithRequestHeader("Authorization", c.authorization()))
	if err != nil {
		return resp, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if err = checkStatus(res); err != nil {
		return resp, err
	}
	if err = json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return resp, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	return statusError(jsonapi.InvalidStatusError{
		Status: res.StatusCode,
		Body:   string(body),
	})
}

var statusToKind = map[int]failure.Kind{
	http.StatusUnauthorized:        failure.Auth,
	http.StatusTooManyRequests:     failure.RateLimit,
	http.StatusBadGateway:          failure.Provider,
	http.StatusNotImplemented:      failure.CapabilityUnavailable,
	http.StatusBadRequest:          failure.EmptyInput,
	http.StatusInternalServerError: failure.Configuration,
}

// statusError turns a server error response back into a failure, so callers
// can show the server's message and branch on the kind.
func statusError(err error) error {
	if err == nil {
		return nil
	}
	var ise jsonapi.InvalidStatusError
	if !errors.As(err, &ise) {
		return err
	}
	kind, ok := statusToKind[ise.Status]
	if !ok {
		return fmt.Errorf("unexpected status %d: %s", ise.Status, message(ise.Body))
	}
	return failure.New(kind, message(ise.Body))
}

func message(body string) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &e); err == nil && e.Message != "" {
		return e.Message
	}
	return body
}
