package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	// eventBufferSize bounds how many undelivered schedule events a slow
	// subscriber may queue before the hub starts dropping for it.
	eventBufferSize = 16
	keepalive       = 30 * time.Second
)

// Client is one subscribed calendar UI. It only listens: the schedule is
// mutated through the JSON API, and the socket exists to push the resulting
// events back out.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	events chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		events: make(chan []byte, eventBufferSize),
	}
}

// Run subscribes the client to the hub and pumps events to the socket until
// the connection drops, then unsubscribes.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.deliver(ctx)
	c.drainReads(ctx)
}

// drainReads consumes inbound frames so the connection's control handling
// keeps working. Clients have nothing to say; a read error means the socket
// is gone and Run should clean up.
func (c *Client) drainReads(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// deliver writes queued events to the socket and pings on an interval so a
// dead subscriber is noticed even when the schedule is quiet.
func (c *Client) deliver(ctx context.Context) {
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				// Hub unsubscribed us
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
