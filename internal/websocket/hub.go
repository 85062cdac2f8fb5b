package notifyws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"
	"github.com/saeid-a/CoachProgramBack/internal/models"
)

// Hub fans queued mails out to the connected recipients.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	log        zerolog.Logger
}

// Client is one websocket connection. The send queue is never closed;
// done signals that the hub has let go of the client.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

type Message struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id,omitempty"`
	MailID      string `json:"mail_id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Content     string `json:"content,omitempty"`
	Timestamp   string `json:"timestamp"`
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
		done:       make(chan struct{}),
		log:        logger.With().Str("component", "notify_hub").Logger(),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
		done:   make(chan struct{}),
	}
}

// Run owns the client registry until ctx is done. After it returns,
// Register and Unregister no longer block.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					client.close()
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Register hands the client to the hub. A client registered after shutdown
// is closed straight away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

// Notify never blocks the caller; a full queue drops the push, the mail
// itself stays in the outbox.
func (h *Hub) Notify(userID string, mail models.MailOut) {
	message := &Message{
		Type:        "mail",
		RecipientID: userID,
		MailID:      mail.ID,
		Kind:        string(mail.Kind),
		Subject:     mail.Subject,
		Timestamp:   formatTimestamp(mail.CreatedAt),
	}
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		h.log.Warn().Str("user_id", userID).Str("mail_id", mail.ID).Msg("notification queue full, dropping push")
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		client.close()
		return
	}
	delete(set, client)
	client.close()
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		h.log.Error().Err(err).Msg("encode notification")
		return
	}

	set, ok := h.clients[message.RecipientID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- encoded:
		default:
			h.log.Warn().Str("user_id", client.userID).Msg("dropping slow client")
			h.remove(client)
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadPump keeps the connection alive and answers pings until the peer
// goes away or the hub drops the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type string `json:"type"`
		}
		ok := true
		if err := json.Unmarshal(payload, &incoming); err != nil {
			ok = c.reply("error", "invalid message payload")
		} else {
			switch incoming.Type {
			case "ping":
				ok = c.reply("pong", "")
			default:
				ok = c.reply("error", "unsupported message type")
			}
		}
		if !ok {
			return
		}
	}
}

// WritePump drains the send queue until the client is closed. Closing the
// connection also unblocks ReadPump.
func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

// reply queues a direct answer. It reports false once the client is closed
// or its queue overflowed; the caller stops reading then.
func (c *Client) reply(kind, content string) bool {
	payload, err := json.Marshal(Message{
		Type:      kind,
		Content:   content,
		Timestamp: formatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return true
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		c.hub.Unregister(c)
		return false
	}
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
