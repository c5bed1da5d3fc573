package boardclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	dto "github.com/park285/cheese-board/pkg/boarddto"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// WatchEvents subscribes to a game's event stream. It returns once the server
// confirms the subscription; the channel closes when ctx ends or the server hangs up.
func (c *Client) WatchEvents(ctx context.Context, id string) (<-chan dto.Event, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.wsURL(gamePath(id, "/events")), &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.buildHeaders(),
	})
	if err != nil {
		return nil, fmt.Errorf("dial events: %w", err)
	}

	var first dto.Event
	if err := wsjson.Read(dialCtx, conn, &first); err != nil {
		_ = conn.Close(websocket.StatusGoingAway, "handshake")
		return nil, fmt.Errorf("read subscribe frame: %w", err)
	}
	if first.Kind != dto.EventSubscribed {
		_ = conn.Close(websocket.StatusProtocolError, "unexpected frame")
		return nil, fmt.Errorf("unexpected first frame kind %q", first.Kind)
	}

	out := make(chan dto.Event, 16)
	go func() {
		defer close(out)
		defer conn.Close(websocket.StatusNormalClosure, "close")
		for {
			var ev dto.Event
			if err := wsjson.Read(ctx, conn, &ev); err != nil {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) wsURL(path string) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + path
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headers == nil {
		return hdr
	}
	for k, v := range c.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
