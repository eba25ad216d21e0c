package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nordicdesk/helpdesk/internal/domain"
	"github.com/nordicdesk/helpdesk/internal/events"
)

func drain(c *Client) []OutboundMessage {
	var out []OutboundMessage
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHub_BroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	member := NewClient(hub, nil, zap.NewNop())
	outsider := NewClient(hub, nil, zap.NewNop())

	hub.Join("t1", member)
	hub.Join("t2", outsider)

	hub.Broadcast("t1", OutboundMessage{Type: outboundNewComment, Data: "hello"})

	require.Len(t, drain(member), 1)
	assert.Empty(t, drain(outsider))
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := NewClient(hub, nil, zap.NewNop())

	hub.Join("t1", client)
	hub.Leave("t1", client)
	hub.Broadcast("t1", OutboundMessage{Type: outboundTicketUpdated})

	assert.Empty(t, drain(client))
	assert.Zero(t, hub.RoomSize("t1"))
}

func TestHub_RemoveDetachesFromAllRooms(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := NewClient(hub, nil, zap.NewNop())

	hub.Join("t1", client)
	hub.Join("t2", client)
	hub.Remove(client)

	assert.Zero(t, hub.RoomSize("t1"))
	assert.Zero(t, hub.RoomSize("t2"))

	// The send channel is closed so the write pump terminates.
	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_SlowClientIsSkippedNotBlocked(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := NewClient(hub, nil, zap.NewNop())
	hub.Join("t1", client)

	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast("t1", OutboundMessage{Type: outboundNewComment, Data: i})
	}

	// Overflow beyond the buffer is dropped, delivery stays at-most-once.
	assert.Len(t, drain(client), sendBufferSize)
}

func TestHub_ForwardsDispatcherEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	dispatcher := events.NewInMemoryDispatcher()
	hub.RegisterHandlers(dispatcher)

	client := NewClient(hub, nil, zap.NewNop())
	hub.Join("t1", client)

	comment := &domain.Comment{ID: "c1", TicketID: "t1", Content: "hi"}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventNewComment,
		TicketID: "t1",
		Payload:  events.NewCommentPayload{Comment: comment},
	}))

	ticket := &domain.Ticket{ID: "t1", Status: domain.TicketStatusInProgress}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: "t1",
		Payload:  events.TicketUpdatedPayload{Ticket: ticket},
	}))

	msgs := drain(client)
	require.Len(t, msgs, 2)
	assert.Equal(t, outboundNewComment, msgs[0].Type)
	assert.Equal(t, comment, msgs[0].Data)
	assert.Equal(t, outboundTicketUpdated, msgs[1].Type)
	assert.Equal(t, ticket, msgs[1].Data)
}
