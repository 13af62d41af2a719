package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/makolaonline/whatsapp-router/internal/hub"
)

// Client follows the job feed of a running router.
type Client struct {
	conn    *websocket.Conn
	Channel string
}

// Dial connects to the feed at addr (for example ws://localhost:8080/v1/ws/jobs)
// and waits for the subscription ack.
func Dial(ctx context.Context, addr, channel string) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse feed address: %w", err)
	}
	if channel != "" {
		q := u.Query()
		q.Set("channel", channel)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		conn.Close()
		return nil, err
	}
	var ack Subscribed
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read subscribed: %w", err)
	}
	if ack.Type != "subscribed" {
		conn.Close()
		return nil, fmt.Errorf("expected subscribed, got: %s", ack.Type)
	}
	conn.SetReadDeadline(time.Time{})

	return &Client{conn: conn, Channel: ack.Channel}, nil
}

// Next blocks until the next job update arrives.
func (c *Client) Next() (hub.JobUpdate, error) {
	var update hub.JobUpdate
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return update, err
	}
	if err := json.Unmarshal(data, &update); err != nil {
		return update, fmt.Errorf("unmarshal job update: %w", err)
	}
	return update, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
