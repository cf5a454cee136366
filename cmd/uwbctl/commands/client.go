package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uwbd/uwbd/internal/api"
)

// apiClient is a thin HTTP/JSON client for the uwbd admin API, playing the
// role the ConnectRPC-generated client played in the teacher's CLI.
type apiClient struct {
	http    *http.Client
	baseURL string
}

func newAPIClient(addr string) *apiClient {
	return &apiClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: "http://" + addr,
	}
}

// errAPIStatus is returned when the daemon responds with a non-2xx status
// that could not be decoded as an RFC 7807 problem.
var errAPIStatus = errors.New("unexpected daemon response")

func (c *apiClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeProblem(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeProblem(resp *http.Response) error {
	var p api.Problem
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil || p.Title == "" {
		return fmt.Errorf("%w: status %d", errAPIStatus, resp.StatusCode)
	}
	if p.Detail != "" {
		return fmt.Errorf("%s: %s", p.Title, p.Detail)
	}
	return fmt.Errorf("%s", p.Title)
}

func (c *apiClient) listSessions(ctx context.Context) ([]api.SessionResponse, error) {
	var out []api.SessionResponse
	err := c.do(ctx, http.MethodGet, "/sessions", nil, &out)
	return out, err
}

func (c *apiClient) getSession(ctx context.Context, handle uint64) (api.SessionResponse, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodGet, sessionPath(handle), nil, &out)
	return out, err
}

func (c *apiClient) createSession(ctx context.Context, req api.OpenSessionRequest) (api.SessionResponse, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodPost, "/sessions", req, &out)
	return out, err
}

func (c *apiClient) deleteSession(ctx context.Context, handle uint64) error {
	return c.do(ctx, http.MethodDelete, sessionPath(handle), nil, nil)
}

func (c *apiClient) startRanging(ctx context.Context, handle uint64, req *api.StartRequest) error {
	return c.do(ctx, http.MethodPost, sessionPath(handle)+"/start", req, nil)
}

func (c *apiClient) stopRanging(ctx context.Context, handle uint64) error {
	return c.do(ctx, http.MethodPost, sessionPath(handle)+"/stop", nil, nil)
}

func (c *apiClient) multicastUpdate(ctx context.Context, handle uint64, req api.MulticastUpdateRequest) error {
	return c.do(ctx, http.MethodPost, sessionPath(handle)+"/multicast", req, nil)
}

func (c *apiClient) sendData(ctx context.Context, handle uint64, req api.SendDataRequest) error {
	return c.do(ctx, http.MethodPost, sessionPath(handle)+"/send", req, nil)
}

func (c *apiClient) events(ctx context.Context, handle uint64) ([]api.Event, error) {
	var out []api.Event
	err := c.do(ctx, http.MethodGet, sessionPath(handle)+"/events", nil, &out)
	return out, err
}

func sessionPath(handle uint64) string {
	return fmt.Sprintf("/sessions/%d", handle)
}
