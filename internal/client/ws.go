package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/flowgraph/internal/chat"
)

// wsRequest mirrors the server's websocket request frame.
type wsRequest struct {
	UserInput string `json:"user_input"`
	IsRepair  bool   `json:"is_repair"`
}

// GenerateWS sends a description over /ws/generate, dialing on first use.
// The socket shares the HTTP cookie jar so both paths use one session. A
// broken connection is dropped and redialed on the next call.
func (c *Client) GenerateWS(ctx context.Context, input string, repair bool) (*chat.GenerateResponse, error) {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		dialer := websocket.Dialer{Jar: c.jar, HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout}
		conn, _, err := dialer.DialContext(ctx, c.wsURL(), nil)
		if err != nil {
			return nil, fmt.Errorf("websocket dial: %w", err)
		}
		c.ws = conn
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.ws.SetWriteDeadline(deadline)
		c.ws.SetReadDeadline(deadline)
		defer func() {
			if c.ws != nil {
				c.ws.SetWriteDeadline(time.Time{})
				c.ws.SetReadDeadline(time.Time{})
			}
		}()
	}

	if err := c.ws.WriteJSON(wsRequest{UserInput: input, IsRepair: repair}); err != nil {
		c.dropWS()
		return nil, fmt.Errorf("websocket write: %w", err)
	}
	var out chat.GenerateResponse
	if err := c.ws.ReadJSON(&out); err != nil {
		c.dropWS()
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return &out, nil
}

func (c *Client) wsURL() string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/generate"
}

// dropWS closes the socket; callers hold wsMu.
func (c *Client) dropWS() {
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
}
