// Package realtime delivers comment and ticket-update events to viewers of a
// ticket over WebSocket. Rooms are partitioned by ticket id: a viewer joins a
// room when opening the ticket's detail view and leaves on navigating away.
// Delivery is at-most-once with no replay; a viewer who was offline at
// publish time re-fetches state through the ordinary read path.
package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nordicdesk/helpdesk/internal/events"
)

// OutboundMessage is the wire frame pushed to room members.
type OutboundMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// inboundMessage is the wire frame received from clients.
type inboundMessage struct {
	Type     string `json:"type"`
	TicketID string `json:"ticketId"`
}

const (
	inboundJoinTicket  = "joinTicket"
	inboundLeaveTicket = "leaveTicket"

	outboundNewComment    = "newComment"
	outboundTicketUpdated = "ticketUpdated"
)

// Hub tracks room membership and fans events out to members.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// RegisterHandlers subscribes the hub to the dispatcher events it forwards.
func (h *Hub) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventNewComment, h.handleNewComment)
	dispatcher.Subscribe(events.EventTicketUpdated, h.handleTicketUpdated)
}

func (h *Hub) handleNewComment(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NewCommentPayload)
	if !ok {
		return nil
	}
	h.Broadcast(event.TicketID, OutboundMessage{Type: outboundNewComment, Data: payload.Comment})
	return nil
}

func (h *Hub) handleTicketUpdated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return nil
	}
	h.Broadcast(event.TicketID, OutboundMessage{Type: outboundTicketUpdated, Data: payload.Ticket})
	return nil
}

// Join adds the client to a ticket's room.
func (h *Hub) Join(ticketID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[ticketID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[ticketID] = room
	}
	room[client] = struct{}{}
	client.rooms[ticketID] = struct{}{}
}

// Leave removes the client from a ticket's room.
func (h *Hub) Leave(ticketID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(ticketID, client)
}

// Remove detaches the client from every room and closes its send channel.
func (h *Hub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ticketID := range client.rooms {
		h.leaveLocked(ticketID, client)
	}
	close(client.send)
}

func (h *Hub) leaveLocked(ticketID string, client *Client) {
	room, ok := h.rooms[ticketID]
	if !ok {
		return
	}
	delete(room, client)
	delete(client.rooms, ticketID)
	if len(room) == 0 {
		delete(h.rooms, ticketID)
	}
}

// Broadcast delivers the message to current room members. Members whose send
// buffer is full are skipped; there is no retry or backlog.
func (h *Hub) Broadcast(ticketID string, msg OutboundMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[ticketID] {
		select {
		case client.send <- msg:
		default:
			h.logger.Warn("dropping realtime message, slow client",
				zap.String("ticket_id", ticketID),
				zap.String("type", msg.Type))
		}
	}
}

// RoomSize reports current membership, mainly for health and tests.
func (h *Hub) RoomSize(ticketID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ticketID])
}
