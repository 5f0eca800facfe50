package client

// ws_client.go = follows the live rewards feed over WebSocket.

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	feed "bookhub/internal/microservices/websocket"

	"github.com/gorilla/websocket"
)

// feedURL maps the API base URL onto the feed endpoint.
func feedURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported API URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/feed"
	return u.String(), nil
}

// WatchFeed streams rewards events to onEvent until ctx is cancelled or the
// server closes the connection.
func (c *HTTPClient) WatchFeed(ctx context.Context, onEvent func(*feed.Event)) error {
	target, err := feedURL(c.baseURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Add("Authorization", "Bearer "+c.token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: "feed connection refused"}
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage on cancel
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("feed read failed: %w", err)
		}
		e, err := feed.EventFromJSON(data)
		if err != nil {
			continue
		}
		onEvent(e)
	}
}
