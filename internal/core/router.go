package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/avoronkov/peerchat-server/internal/proto"
	"github.com/avoronkov/peerchat-server/internal/store"
)

// Router accepts inbound frames from authenticated connections, persists the
// decoded message and fans it out to both conversation participants.
type Router struct {
	registry *Registry
	presence *Tracker
	messages store.MessageStore
	log      *zerolog.Logger
	now      func() time.Time
}

// NewRouter constructs a router over the given registry, tracker and message
// log.
func NewRouter(registry *Registry, presence *Tracker, messages store.MessageStore, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		presence: presence,
		messages: messages,
		log:      logger,
		now:      time.Now,
	}
}

// HandleFrame processes one inbound frame from sender. Frames of one
// connection are handled strictly in arrival order by its single read loop.
//
// A frame that cannot be decoded is reported as ErrMalformedFrame and is
// neither persisted nor delivered; the connection stays open. Persistence
// happens before any delivery attempt and a failure there aborts the fan-out
// with ErrPersistence. Recipients without an active connection are skipped
// silently; a recipient whose connection is gone is dropped from the
// registry.
func (r *Router) HandleFrame(ctx context.Context, sender *Client, frame []byte) error {
	var in proto.ChatFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if in.ChatID == "" || in.Content == "" {
		return fmt.Errorf("%w: chatId and content are required", ErrMalformedFrame)
	}

	// The sender field is a trust boundary: whatever the client claimed is
	// replaced with the authenticated identity of its connection.
	msg := &store.Message{
		ChatID:    in.ChatID,
		Sender:    sender.Identity,
		Content:   in.Content,
		CreatedAt: r.now().UTC(),
	}

	if err := r.messages.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	r.presence.MarkActivity(sender.Identity)

	payload, err := json.Marshal(proto.ChatFrame{
		ID:      strconv.FormatInt(msg.ID, 10),
		ChatID:  msg.ChatID,
		Sender:  msg.Sender,
		Content: msg.Content,
		TS:      msg.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal outbound frame: %w", err)
	}

	for _, identity := range recipients(msg.Sender, msg.ChatID) {
		client, ok := r.registry.Lookup(identity)
		if !ok {
			// No queueing, no offline mailbox: an unreachable
			// recipient catches up via the persisted log.
			continue
		}
		if err := client.Send(payload); err != nil {
			r.registry.Unregister(client)
			r.log.Warn().
				Str("identity", identity).
				Str("conn_id", client.ID).
				Msg("dropped broken connection during delivery")
		}
	}

	return nil
}

// recipients returns the two-party recipient set: the sender itself (echo for
// its other devices) and the named peer.
func recipients(sender, chatID string) []string {
	if sender == chatID {
		return []string{sender}
	}
	return []string{sender, chatID}
}
