package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.notion.com"

	apiVersion     = "2022-06-28"
	requestTimeout = 60 * time.Second
	pageSize       = 100
)

// Client issues requests against the blocks API.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// NewClient creates a client for the given integration token. baseURL may
// be empty to use the production endpoint; tests point it at a local server.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		token:      token,
		baseURL:    baseURL,
	}
}

type appendRequest struct {
	Children []Block `json:"children"`
}

type listResponse struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AppendChildren appends blocks to the end of blockID's children and
// returns the created blocks in order.
func (c *Client) AppendChildren(ctx context.Context, blockID string, children []Block) ([]Block, error) {
	body, err := json.Marshal(appendRequest{Children: children})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode children")
	}

	path := fmt.Sprintf("/v1/blocks/%s/children", url.PathEscape(blockID))
	respBody, err := c.do(ctx, http.MethodPatch, path, body)
	if err != nil {
		return nil, err
	}

	var parsed listResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to decode append response")
	}
	return parsed.Results, nil
}

// Children reads all children of blockID, following pagination.
func (c *Client) Children(ctx context.Context, blockID string) ([]Block, error) {
	var all []Block
	cursor := ""
	for {
		path := fmt.Sprintf("/v1/blocks/%s/children?page_size=%d", url.PathEscape(blockID), pageSize)
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}

		respBody, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var parsed listResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, errors.Wrap(err, "failed to decode children response")
		}
		all = append(all, parsed.Results...)

		if !parsed.HasMore || parsed.NextCursor == "" {
			return all, nil
		}
		cursor = parsed.NextCursor
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed errorResponse
		if json.Unmarshal(respBody, &parsed) == nil {
			apiErr.Code = parsed.Code
			apiErr.Message = parsed.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	return respBody, nil
}

// APIError is a non-success response from the blocks API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %d %s: %s", e.StatusCode, e.Code, e.Message)
}
