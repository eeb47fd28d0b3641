// Package client talks to a running flowgraph server. It keeps the session
// cookie between calls so consecutive requests share one conversation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/flowgraph/internal/chat"
)

// Client connects to a flowgraph server over HTTP.
type Client struct {
	baseURL    string
	jar        http.CookieJar
	httpClient *http.Client

	wsMu sync.Mutex
	ws   *websocket.Conn
}

// New creates a client for the server at baseURL. A zero timeout means no
// client-side deadline.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		jar:     jar,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Generate posts a description to /generate as multipart form data. The
// body is decoded whatever the status, so server-side failures come back as
// GenerateResponse.Error; only transport and decoding problems are errors.
func (c *Client) Generate(ctx context.Context, input string, repair bool) (*chat.GenerateResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(chat.FieldUserInput, input); err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}
	if err := mw.WriteField(chat.FieldIsRepair, fmt.Sprint(repair)); err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("encoding form: %w", err)
	}

	var out chat.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/generate", &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return &out, nil
}

// ClearSession resets the server-side conversation.
func (c *Client) ClearSession(ctx context.Context) (*chat.ClearResponse, error) {
	var out chat.ClearResponse
	if err := c.do(ctx, http.MethodPost, "/clear_session", nil, "", &out); err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	return &out, nil
}

// History fetches the current conversation.
func (c *Client) History(ctx context.Context) ([]chat.Entry, error) {
	var out chat.GenerateResponse
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, "", &out); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("history: server error: %s", out.Error)
	}
	return out.ChatHistory, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}

// Close releases the websocket connection if one was opened.
func (c *Client) Close() error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.Close()
	c.ws = nil
	return err
}
