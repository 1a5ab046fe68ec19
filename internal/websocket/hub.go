// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/models"
)

// Message types on the live stream.
const (
	MessageTypeVenueChange  = "venue_change"
	MessageTypeVenueRefresh = "venue_refresh"
	MessageTypeInsights     = "insights"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is one frame sent to stream clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// VenueChangeData describes an applied change feed event.
type VenueChangeData struct {
	VenueID string            `json:"venue_id"`
	Kind    models.ChangeKind `json:"kind"`
	Venue   *models.Venue     `json:"venue,omitempty"`
}

// VenueRefreshData summarizes a refresh cycle.
type VenueRefreshData struct {
	Kind       string `json:"kind"`
	Venues     int    `json:"venues"`
	Updated    int    `json:"updated"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	stopped    chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// NewHub creates a hub. A nil clock uses the real clock.
func NewHub(clock clockwork.Clock) *Hub {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		clock:      clock,
		logger:     logging.WithComponent("websocket-hub"),
	}
}

// Serve runs the fan-out loop until ctx is canceled. Lifecycle events are
// drained before broadcasts so that a message never reaches a client that
// has already unregistered.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String names the service for the supervisor.
func (h *Hub) String() string {
	return "websocket-hub"
}

// Done is closed once the hub has stopped serving.
func (h *Hub) Done() <-chan struct{} {
	return h.stopped
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StreamClients.Set(float64(n))
	h.logger.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("stream client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StreamClients.Set(float64(n))
	h.logger.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("stream client disconnected")
}

// shutdown closes every client and marks the hub stopped.
func (h *Hub) shutdown() {
	h.mu.Lock()
	closed := len(h.clients)
	for _, client := range h.sortedClientsLocked() {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	metrics.StreamClients.Set(0)
	h.stopOnce.Do(func() { close(h.stopped) })
	h.logger.Info().Int("clients_closed", closed).Msg("websocket hub stopped")
}

// sortedClientsLocked returns clients in id order. Callers hold h.mu.
func (h *Hub) sortedClientsLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message in client id order. A client whose
// queue is full is disconnected.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var slow []*Client
	for _, client := range h.sortedClientsLocked() {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		close(client.send)
		delete(h.clients, client)
		metrics.RecordStreamMessage(message.Type, "dropped")
		h.logger.Warn().Uint64("client_id", client.id).Msg("stream client too slow, disconnected")
	}
	metrics.StreamClients.Set(float64(len(h.clients)))
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastJSON queues a message for every client. It never blocks.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{Type: messageType, Data: data, At: h.clock.Now().UTC()}
	select {
	case h.broadcast <- message:
		metrics.RecordStreamMessage(messageType, "queued")
	default:
		metrics.RecordStreamMessage(messageType, "dropped")
		h.logger.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastVenueChange announces an applied change feed event.
func (h *Hub) BroadcastVenueChange(ev models.ChangeEvent) {
	data := VenueChangeData{VenueID: ev.ID(), Kind: ev.Kind}
	if ev.Venue != nil && ev.Kind != models.ChangeRemoved {
		v := ev.Venue.Clone()
		data.Venue = &v
	}
	h.BroadcastJSON(MessageTypeVenueChange, data)
}

// BroadcastRefresh announces a finished sensor or weather cycle.
func (h *Hub) BroadcastRefresh(kind string, venues, updated, failed int, duration time.Duration) {
	h.BroadcastJSON(MessageTypeVenueRefresh, VenueRefreshData{
		Kind:       kind,
		Venues:     venues,
		Updated:    updated,
		Failed:     failed,
		DurationMS: duration.Milliseconds(),
	})
}

// BroadcastInsights announces a newly published insight list.
func (h *Hub) BroadcastInsights(insights []models.CivicInsight) {
	if insights == nil {
		insights = []models.CivicInsight{}
	}
	h.BroadcastJSON(MessageTypeInsights, insights)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
