// Package api is the HTTP JSON client for the clinical-questions service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

const defaultTimeout = 30 * time.Second

// Client talks to the clinical-questions API. The base URL is injected so
// tests can point it at a local server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. An empty baseURL falls
// back to DefaultBaseURL; a nil httpClient gets a default with a timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RegistrationQuestions fetches the ordered registration question list.
func (c *Client) RegistrationQuestions(ctx context.Context) ([]Question, error) {
	var questions []Question
	if err := c.get(ctx, "/get-initial-questions", &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SubmitRegistration sends the accumulated answer map and returns the
// server-issued encounter id.
func (c *Client) SubmitRegistration(ctx context.Context, answers map[string]string) (RegistrationResponse, error) {
	var resp RegistrationResponse
	if err := c.post(ctx, "/submit-registration", answers, &resp); err != nil {
		return RegistrationResponse{}, err
	}
	return resp, nil
}

// SafetyQuestions fetches the ordered safety-screen question list.
func (c *Client) SafetyQuestions(ctx context.Context) ([]Question, error) {
	var questions []Question
	if err := c.get(ctx, "/get-questions", &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SubmitSafetyAnswer posts one safety-screen answer and returns the server's
// evaluation.
func (c *Client) SubmitSafetyAnswer(ctx context.Context, req SafetyAnswerRequest) (SafetyAnswerResponse, error) {
	var resp SafetyAnswerResponse
	if err := c.post(ctx, "/submit-safety-answer", req, &resp); err != nil {
		return SafetyAnswerResponse{}, err
	}
	return resp, nil
}

// Categories fetches the chief-complaint categories for an encounter.
func (c *Client) Categories(ctx context.Context, encounterID string) ([]Category, error) {
	body := map[string]string{"encounter_id": encounterID}
	var categories []Category
	if err := c.post(ctx, "/v2/chief-complaint/categories", body, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Presentations fetches per-category presentation groups for the selected
// categories.
func (c *Client) Presentations(ctx context.Context, req PresentationsRequest) (PresentationsResponse, error) {
	var resp PresentationsResponse
	if err := c.post(ctx, "/v2/chief-complaint/presentations", req, &resp); err != nil {
		return PresentationsResponse{}, err
	}
	return resp, nil
}

// SubmitChiefComplaint posts the final chief-complaint payload.
func (c *Client) SubmitChiefComplaint(ctx context.Context, sub ChiefComplaintSubmission) (SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.post(ctx, "/v2/submit-chief-complaint", sub, &resp); err != nil {
		return SubmitResponse{}, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	// Any non-2xx is a uniform failure; the body is not parsed.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
