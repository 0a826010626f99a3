package fanout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/snapfeed-app/snapfeed/model"
)

// Hub contains all structures that handle the realtime new-snap channel. All
// internal state should not be handled directly by hand but managed by its
// public receivers.
//
// Delivery is fire and forget: not persisted, not retried, no ordering
// guarantee relative to other broadcasts or to the read path. Subscribers do
// not survive a process restart, re-subscribing is the client's job.
type Hub struct {
	// connectionMap maps from user id to the user's active signal channels.
	// User's active channels are represented in the form of a map from channel
	// id (uuid) to the actual channel. This is needed so that deletion of a
	// channel is O(1).
	// Each connectionMap entry will be deleted once all user's active channels
	// are closed.
	// Multiple devices of one user cannot share a channel and each has to
	// create its own.
	connectionMap map[string]map[string]chan *model.Signal

	// Adding/Removing a subscription must grab the write lock, while all other
	// usage (e.g. pushing a new Signal) grabs a read lock.
	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connectionMap: make(map[string]map[string]chan *model.Signal),
	}
}

// cleanUp a single connection when the context terminates. If all of a user's
// active connections terminate, clean up the user's top-level entry as well.
func (h *Hub) cleanUp(ctx context.Context, chID string, userID string) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.connectionMap[userID], chID)
	if len(h.connectionMap[userID]) == 0 {
		delete(h.connectionMap, userID)
	}
}

// Subscribe registers a new connection for the user and returns its channel.
// The connection is torn down when ctx is done. Thread-safe.
func (h *Hub) Subscribe(ctx context.Context, userID string) (chan *model.Signal, string) {
	chID := "signal_channel_" + uuid.New().String()
	ch := make(chan *model.Signal, 8)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connectionMap[userID]; !ok {
		h.connectionMap[userID] = make(map[string]chan *model.Signal)
	}
	h.connectionMap[userID][chID] = ch

	// Spin up a background garbage collector.
	go h.cleanUp(ctx, chID, userID)

	return ch, chID
}

// ActiveConnectionsCount reports how many channels are live. Thread-safe.
func (h *Hub) ActiveConnectionsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, mp := range h.connectionMap {
		count += len(mp)
	}
	return count
}

// BroadcastNewPost pushes the signal to every connected client except the
// excluded user (normally the uploader). Sends never block: a subscriber
// whose buffer is full simply misses the hint and catches up on its next
// pull. Thread-safe.
func (h *Hub) BroadcastNewPost(signal *model.Signal, excludeUserID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, channels := range h.connectionMap {
		if userID == excludeUserID {
			continue
		}
		for _, ch := range channels {
			select {
			case ch <- signal:
			default:
			}
		}
	}
}
