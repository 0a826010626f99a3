package model

// SignalTypeNewSnap advertises a freshly accepted snap to connected clients.
const SignalTypeNewSnap = "new_snap"

// Signal is the lightweight payload pushed over the realtime channel. It is
// advisory only: delivery is best effort and clients must re-pull the feed
// rather than derive state from it.
type Signal struct {
	Type string       `json:"type"`
	Post *PostSummary `json:"post,omitempty"`
}
