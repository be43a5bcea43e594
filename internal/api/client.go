// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/earthview/globe/internal/httpapi"
	"github.com/earthview/globe/internal/storage"
	"github.com/earthview/globe/internal/storage/memory"
	"github.com/earthview/globe/pkg/core"
)

// Client talks to a running earthview server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the server is reachable and reports its open sessions.
func (c *Client) Healthcheck(ctx context.Context) (httpapi.HealthResponse, error) {
	var resp httpapi.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthcheck", nil, &resp); err != nil {
		return resp, fmt.Errorf("healthcheck: %w", err)
	}
	return resp, nil
}

// Decode asks the server to decode a descriptor.
func (c *Client) Decode(ctx context.Context, code string) (core.CameraState, error) {
	var camera core.CameraState
	err := c.do(ctx, http.MethodGet, "/api/descriptor/"+url.PathEscape(code), nil, &camera)
	return camera, err
}

// Encode asks the server for the descriptor and share link of a camera.
func (c *Client) Encode(ctx context.Context, camera core.CameraState) (httpapi.DescriptorResponse, error) {
	var resp httpapi.DescriptorResponse
	err := c.do(ctx, http.MethodPost, "/api/descriptor", camera, &resp)
	return resp, err
}

// SaveViewpoint stores a named descriptor.
func (c *Client) SaveViewpoint(ctx context.Context, name, descriptor string) (core.Viewpoint, error) {
	var vp core.Viewpoint
	err := c.do(ctx, http.MethodPost, "/api/viewpoints", httpapi.ViewpointRequest{
		Name:       name,
		Descriptor: descriptor,
	}, &vp)
	return vp, err
}

// GetViewpoint fetches a viewpoint by name. A missing viewpoint yields
// an error matching storage.ErrNotFound.
func (c *Client) GetViewpoint(ctx context.Context, name string) (core.Viewpoint, error) {
	var vp core.Viewpoint
	err := c.do(ctx, http.MethodGet, "/api/viewpoints/"+url.PathEscape(name), nil, &vp)
	return vp, err
}

// ListViewpoints fetches every saved viewpoint.
func (c *Client) ListViewpoints(ctx context.Context) ([]core.Viewpoint, error) {
	var list []core.Viewpoint
	err := c.do(ctx, http.MethodGet, "/api/viewpoints", nil, &list)
	return list, err
}

// Upload pushes the viewpoints of an export file to the server and returns
// how many were stored. It stops at the first rejected viewpoint.
func (c *Client) Upload(ctx context.Context, exportPath string) (int, error) {
	export, err := memory.ReadExport(exportPath)
	if err != nil {
		return 0, err
	}
	for i, vp := range export.Viewpoints {
		if _, err := c.SaveViewpoint(ctx, vp.Name, vp.Descriptor); err != nil {
			return i, fmt.Errorf("upload %q: %w", vp.Name, err)
		}
	}
	return len(export.Viewpoints), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload)

	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, msg)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, msg)
}
