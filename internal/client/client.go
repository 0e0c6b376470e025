// Package client talks to the task API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskboard/internal/http/dto"
)

const taskPath = "/api/v1/internal/task"

// APIError is a non-2xx answer carrying the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Code, e.Message)
}

// CreateTaskRequest mirrors the POST body. Description may be empty.
type CreateTaskRequest struct {
	Title       string
	Description string
	DueDate     string
	Priority    int
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]dto.TaskResponse, error) {
	var tasks []dto.TaskResponse
	if err := c.do(ctx, http.MethodGet, taskPath, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (dto.TaskResponse, error) {
	var task dto.TaskResponse
	err := c.do(ctx, http.MethodGet, taskPath+"/"+url.PathEscape(id), nil, &task)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (dto.TaskResponse, error) {
	body := dto.CreateTaskRequest{
		Title:    req.Title,
		DueDate:  req.DueDate,
		Priority: float64(req.Priority),
	}
	if req.Description != "" {
		body.Description = &req.Description
	}

	var task dto.TaskResponse
	err := c.do(ctx, http.MethodPost, taskPath, body, &task)
	return task, err
}

// Health returns the server's health report. It is not wrapped in the
// standard envelope.
func (c *Client) Health(ctx context.Context) (dto.HealthResponse, error) {
	var health dto.HealthResponse

	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return health, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return health, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, fmt.Errorf("decode health: %w", err)
	}
	return health, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
