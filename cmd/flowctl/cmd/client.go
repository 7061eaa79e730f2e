package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"flowplane/pkg/api"
)

// FlowClient handles API calls to the flowplane controller.
type FlowClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewFlowClient creates a new client for the controller at baseURL.
func NewFlowClient(baseURL string) *FlowClient {
	return &FlowClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Submit sends POST /projects/{project}/submit.
//
// A gated (409) or failed (502) submission still carries a response body;
// it is returned together with the *APIError.
func (c *FlowClient) Submit(project string, req api.SubmitRequest) (*api.SubmitResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	status, respBody, err := c.do(http.MethodPost, c.projectURL(project, "submit"), bodyBytes)
	if err != nil {
		return nil, err
	}

	var result api.SubmitResponse
	if jerr := json.Unmarshal(respBody, &result); jerr != nil || result.JobSubmissionID == "" {
		if status != http.StatusOK {
			return nil, apiError(status, respBody)
		}
		return nil, fmt.Errorf("failed to parse response: %v", jerr)
	}

	if status != http.StatusOK {
		msg := result.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &result, &APIError{StatusCode: status, Message: msg}
	}
	return &result, nil
}

// JobStatus sends GET /projects/{project}/jobs/{job}/status.
func (c *FlowClient) JobStatus(project, jobID string) (*api.JobStatusResponse, error) {
	var result api.JobStatusResponse
	if err := c.getJSON(c.projectURL(project, "jobs", jobID, "status"), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListJobs sends GET /projects/{project}/jobs.
func (c *FlowClient) ListJobs(project string) (*api.ListJobsResponse, error) {
	var result api.ListJobsResponse
	if err := c.getJSON(c.projectURL(project, "jobs"), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateStatus sends POST /projects/{project}/status/update.
func (c *FlowClient) UpdateStatus(project string) (*api.UpdateStatusResponse, error) {
	status, respBody, err := c.do(http.MethodPost, c.projectURL(project, "status", "update"), nil)
	if err != nil {
		return nil, err
	}

	var result api.UpdateStatusResponse
	if status != http.StatusOK {
		// A partial pass reports how many jobs were updated.
		if json.Unmarshal(respBody, &result) == nil && result.Error != "" {
			return &result, &APIError{StatusCode: status, Message: result.Error}
		}
		return nil, apiError(status, respBody)
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

func (c *FlowClient) projectURL(project string, elem ...string) string {
	u, err := url.JoinPath(c.BaseURL, append([]string{"projects", project}, elem...)...)
	if err != nil {
		return c.BaseURL
	}
	return u
}

func (c *FlowClient) getJSON(endpoint string, dst any) error {
	status, respBody, err := c.do(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, respBody)
	}
	if err := json.Unmarshal(respBody, dst); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *FlowClient) do(method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// apiError prefers the message of an api.ErrorResponse body.
func apiError(status int, body []byte) *APIError {
	var e api.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return &APIError{StatusCode: status, Message: e.Error}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}
