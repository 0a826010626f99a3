package model

import "time"

// PostSummary is the single post shape every API response uses. It carries the
// minimal owner projection (username only), never credentials or contact data.
type PostSummary struct {
	Id        string    `json:"id"`
	ImageUrl  string    `json:"imageUrl"`
	Caption   string    `json:"caption"`
	Hashtags  []string  `json:"hashtags"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Username  string    `json:"username"`
}

// Pagination describes one page of the feed.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// FeedPage is one paginated, ordered slice of the viewer's feed. Unseen posts
// always precede already seen ones; both partitions are newest first.
type FeedPage struct {
	UnseenPosts         []*PostSummary `json:"unseenPosts"`
	SeenPosts           []*PostSummary `json:"seenPosts"`
	Pagination          Pagination     `json:"pagination"`
	DailySnapsRemaining int            `json:"dailySnapsRemaining"`
}
