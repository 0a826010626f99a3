package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/snapfeed-app/snapfeed/model"
	"github.com/snapfeed-app/snapfeed/store"
	. "github.com/snapfeed-app/snapfeed/utils/log"
)

const (
	// DailyQuota is how many snaps one user may upload per calendar day.
	DailyQuota = 3

	defaultPageSize = 10
	maxPageSize     = 50
)

// QuotaExceededError carries the counts so the caller can tell the user where
// they stand. Retrying is pointless until the quota window rolls over.
type QuotaExceededError struct {
	Current int64
	Limit   int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily snap limit reached: %d of %d", e.Current, e.Limit)
}

// Broadcaster is the advisory side channel new posts are announced on.
// Failures never surface to the write path.
type Broadcaster interface {
	BroadcastNewPost(signal *model.Signal, excludeUserID string)
}

// Assembler composes feed pages out of the post store and the view ledger,
// and guards the write path with the daily quota. It owns no data itself.
type Assembler struct {
	posts *store.PostStore
	views *store.ViewLedger
	hub   Broadcaster
	nowFn func() time.Time
}

func NewAssembler(posts *store.PostStore, views *store.ViewLedger, hub Broadcaster) *Assembler {
	return &Assembler{posts: posts, views: views, hub: hub, nowFn: time.Now}
}

// Summarize projects a post into the one response shape every endpoint uses.
// The image itself is referenced by URL, never inlined.
func Summarize(post *model.Post) *model.PostSummary {
	hashtags := make([]string, 0, len(post.Hashtags))
	for _, h := range post.Hashtags {
		hashtags = append(hashtags, h.Tag)
	}
	return &model.PostSummary{
		Id:        post.Id,
		ImageUrl:  "/api/snaps/image/" + post.Id,
		Caption:   post.Caption,
		Hashtags:  hashtags,
		Location:  post.Location,
		CreatedAt: post.CreatedAt,
		Username:  post.Owner.Username,
	}
}

// GetFeedPage returns one page of the viewer's feed: candidates newest first,
// split into unseen-then-seen with order preserved inside each partition,
// plus the pagination descriptor and the viewer's remaining daily uploads.
func (a *Assembler) GetFeedPage(ctx context.Context, viewerID string, page int, pageSize int) (*model.FeedPage, error) {
	if page < 1 {
		return nil, store.NewValidationError("page must be >= 1")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	posts, err := a.posts.ListPosts(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := a.posts.CountPosts(ctx)
	if err != nil {
		return nil, err
	}

	candidateIds := make([]string, 0, len(posts))
	for _, post := range posts {
		candidateIds = append(candidateIds, post.Id)
	}
	unseenIds, err := a.views.UnseenPostIds(ctx, viewerID, candidateIds)
	if err != nil {
		return nil, err
	}

	feedPage := &model.FeedPage{
		UnseenPosts: []*model.PostSummary{},
		SeenPosts:   []*model.PostSummary{},
		Pagination: model.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	for _, post := range posts {
		if unseenIds[post.Id] {
			feedPage.UnseenPosts = append(feedPage.UnseenPosts, Summarize(post))
		} else {
			feedPage.SeenPosts = append(feedPage.SeenPosts, Summarize(post))
		}
	}

	remaining := DailyQuota - int(a.mustDailyCount(ctx, viewerID))
	if remaining < 0 {
		remaining = 0
	}
	feedPage.DailySnapsRemaining = remaining

	return feedPage, nil
}

// mustDailyCount degrades to zero on storage failure; the remaining-uploads
// hint is cosmetic, the authoritative check happens in SubmitPost.
func (a *Assembler) mustDailyCount(ctx context.Context, ownerID string) int64 {
	count, err := a.posts.DailyPostCount(ctx, ownerID, startOfDay(a.nowFn()))
	if err != nil {
		Log.Error("fail to count daily posts: ", err)
		return 0
	}
	return count
}

// SubmitPost enforces the daily quota and then creates the post. The quota
// check and the insert are deliberately not atomic across concurrent requests
// from the same owner: two simultaneous uploads may both pass the check and
// temporarily exceed the quota by one. Known, accepted.
func (a *Assembler) SubmitPost(ctx context.Context, input store.CreatePostInput) (*model.PostSummary, error) {
	count, err := a.posts.DailyPostCount(ctx, input.OwnerID, startOfDay(a.nowFn()))
	if err != nil {
		return nil, err
	}
	if count >= DailyQuota {
		return nil, &QuotaExceededError{Current: count, Limit: DailyQuota}
	}

	post, err := a.posts.CreatePost(ctx, input)
	if err != nil {
		return nil, err
	}
	// Owner isn't preloaded on a fresh insert; fetch the full row once so the
	// summary carries the display name.
	full, err := a.posts.GetPost(ctx, post.Id, input.OwnerID)
	if err != nil {
		return nil, err
	}

	summary := Summarize(full)
	if a.hub != nil {
		a.hub.BroadcastNewPost(&model.Signal{Type: model.SignalTypeNewSnap, Post: summary}, input.OwnerID)
	}
	return summary, nil
}

// startOfDay anchors the quota window at local midnight.
func startOfDay(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}
