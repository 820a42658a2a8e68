// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/metrics"
	"github.com/tomtom215/grouphub/internal/notify"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Transport-level message types. Session message types live with the
// session layer.
const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeNotification = "notification"
	MessageTypeError        = "error"
)

// Message is one outbound websocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Inbound is one frame received from a browser. Data is decoded by the
// handler for the message type.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Message string `json:"message"`
}

// Hub tracks the connected clients, indexed by user, and fans messages out
// to them.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	stopped    chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err().
//
// Selection is prioritized: shutdown first, then client lifecycle events,
// then broadcasts, so client state is settled before a broadcast is fanned
// out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Add registers client through the run loop. It returns false once the
// hub has shut down.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	users := h.byUser[client.userID]
	if users == nil {
		users = make(map[*Client]bool)
		h.byUser[client.userID] = users
	}
	users[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSSessionsActive.Set(float64(total))
	logging.Info().Int("total_clients", total).Str("user_id", client.userID).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		h.dropLocked(client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSSessionsActive.Set(float64(total))
		logging.Info().Int("total_clients", total).Str("user_id", client.userID).Msg("websocket client disconnected")
	}
}

// dropLocked removes client from both indexes and closes its queue.
func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	if users := h.byUser[client.userID]; users != nil {
		delete(users, client)
		if len(users) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	client.closeSend()
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err()
// is not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.stopped) })

	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// sortedLocked returns clients ordered by ID so fan-out order is stable.
func sortedLocked(set map[*Client]bool) []*Client {
	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients sends message to every client, dropping clients
// whose queue is full.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range sortedLocked(h.clients) {
		if !client.enqueue(message) {
			h.dropLocked(client)
		}
	}
	metrics.WSSessionsActive.Set(float64(len(h.clients)))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range sortedLocked(h.clients) {
		h.dropLocked(client)
	}
	metrics.WSSessionsActive.Set(0)
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// SendToUser queues a message for every connection of userID and returns
// how many accepted it.
func (h *Hub) SendToUser(userID, messageType string, data interface{}) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, client := range sortedLocked(h.byUser[userID]) {
		if client.Send(messageType, data) {
			sent++
		}
	}
	return sent
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notifier returns a notify.Notifier that pushes notifications to the open
// connections of the user in the notification's context.
func (h *Hub) Notifier() notify.Notifier {
	return notify.Func(func(ctx context.Context, n notify.Notification) {
		if userID := logging.UserIDFromContext(ctx); userID != "" {
			h.SendToUser(userID, MessageTypeNotification, n)
		}
	})
}
