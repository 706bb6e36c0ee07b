package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prepnova/mocktest-backend/internal/model"
)

// Client is a thin HTTP client over the candidate API, used by the
// terminal exam runner.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates a Client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}

// Login authenticates the candidate and stores the bearer token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var data struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/candidate/login", model.LoginRequest{
		Email:    email,
		Password: password,
	}, &data)
	if err != nil {
		return err
	}
	c.token = data.Token
	return nil
}

// Logout frees the candidate's seat.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/candidate/logout", nil, nil)
}

// Lobby lists active tests with the candidate's attempt overlay.
func (c *Client) Lobby(ctx context.Context) ([]model.LobbyTest, error) {
	var data struct {
		Tests []model.LobbyTest `json:"tests"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/candidate/tests", nil, &data); err != nil {
		return nil, err
	}
	return data.Tests, nil
}

// Paper is the question set plus the attempt state returned when a
// candidate opens a test.
type Paper struct {
	Paper     *model.TestPayload  `json:"paper"`
	StartedAt time.Time           `json:"started_at"`
	Answers   []model.AnswerEntry `json:"answers"`
}

// Questions opens (or resumes) the attempt and fetches the paper.
func (c *Client) Questions(ctx context.Context, testID uuid.UUID) (*Paper, error) {
	var data Paper
	path := fmt.Sprintf("/api/v1/candidate/tests/%s/questions", testID)
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SubmitAnswer saves one answer and returns the recomputed attempt.
func (c *Client) SubmitAnswer(ctx context.Context, testID uuid.UUID, req *model.SubmitAnswerRequest) (*model.Result, error) {
	var result model.Result
	path := fmt.Sprintf("/api/v1/candidate/tests/%s/answers", testID)
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Submit finalizes the attempt.
func (c *Client) Submit(ctx context.Context, testID uuid.UUID) (*model.Result, error) {
	var result model.Result
	path := fmt.Sprintf("/api/v1/candidate/tests/%s/submit", testID)
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Result fetches the attempt with entries and rollups.
func (c *Client) Result(ctx context.Context, testID uuid.UUID) (*model.Result, error) {
	var result model.Result
	path := fmt.Sprintf("/api/v1/candidate/tests/%s/result", testID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
