package collab

import (
	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/google/uuid"
)

// Client is one authenticated connection as the hub sees it. The
// transport owns the socket; the hub only queues frames on Outbound.
type Client struct {
	ID     string
	UserID string
	User   models.PublicUser

	// guarded by Hub.mu
	send   chan []byte
	closed bool
	rooms  map[models.ScopeType]string
}

// NewClient creates a client with a fresh connection id and an outbound
// queue of the given size.
func NewClient(user models.PublicUser, buffer int) *Client {
	if buffer < 1 {
		buffer = 1
	}
	return &Client{
		ID:     uuid.NewString(),
		UserID: user.ID,
		User:   user,
		send:   make(chan []byte, buffer),
		rooms:  make(map[models.ScopeType]string),
	}
}

// Outbound yields encoded frames for the write pump. It is closed when
// the hub unregisters the client.
func (c *Client) Outbound() <-chan []byte {
	return c.send
}
