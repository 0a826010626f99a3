package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snapfeed-app/snapfeed/model"
	"github.com/snapfeed-app/snapfeed/utils"
)

func TestCreatePost(t *testing.T) {
	db := utils.CreateTempDB(t)
	posts := NewPostStore(db)
	owner := utils.TestCreateUser(t, db, "alice")
	ctx := context.Background()

	t.Run("assigns id, timestamps and parses hashtags", func(t *testing.T) {
		post, err := posts.CreatePost(ctx, CreatePostInput{
			OwnerID:     owner.Id,
			ImageData:   []byte("img"),
			MimeType:    "image/png",
			Caption:     "golden hour",
			RawHashtags: "#sunset, #Beach",
			Location:    "goa",
			IsPublic:    true,
		})
		require.NoError(t, err)
		require.NotEmpty(t, post.Id)
		require.NotNil(t, post.ExpiresAt)
		require.True(t, post.ExpiresAt.After(post.CreatedAt))
		require.Equal(t, DefaultTTL, post.ExpiresAt.Sub(post.CreatedAt))

		stored, err := posts.GetPost(ctx, post.Id, owner.Id)
		require.NoError(t, err)
		require.Equal(t, "alice", stored.Owner.Username)
		require.Len(t, stored.Hashtags, 2)
		require.Equal(t, "sunset", stored.Hashtags[0].Tag)
		require.Equal(t, "beach", stored.Hashtags[1].Tag)
	})

	t.Run("rejects missing owner and missing image", func(t *testing.T) {
		_, err := posts.CreatePost(ctx, CreatePostInput{ImageData: []byte("img")})
		require.True(t, IsValidationError(err))

		_, err = posts.CreatePost(ctx, CreatePostInput{OwnerID: owner.Id})
		require.True(t, IsValidationError(err))
	})

	t.Run("honors an explicit ttl", func(t *testing.T) {
		post, err := posts.CreatePost(ctx, CreatePostInput{
			OwnerID:   owner.Id,
			ImageData: []byte("img"),
			TTL:       time.Hour,
			IsPublic:  true,
		})
		require.NoError(t, err)
		require.Equal(t, time.Hour, post.ExpiresAt.Sub(post.CreatedAt))
	})
}

func TestGetPostVisibility(t *testing.T) {
	db := utils.CreateTempDB(t)
	posts := NewPostStore(db)
	owner := utils.TestCreateUser(t, db, "alice")
	stranger := utils.TestCreateUser(t, db, "bob")
	ctx := context.Background()

	private, err := posts.CreatePost(ctx, CreatePostInput{
		OwnerID:   owner.Id,
		ImageData: []byte("img"),
		IsPublic:  false,
	})
	require.NoError(t, err)

	// The owner sees their private snap, everyone else gets the same error a
	// missing snap produces.
	_, err = posts.GetPost(ctx, private.Id, owner.Id)
	require.NoError(t, err)
	_, err = posts.GetPost(ctx, private.Id, stranger.Id)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = posts.GetPost(ctx, "no-such-id", stranger.Id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPostsOrderingAndPaging(t *testing.T) {
	db := utils.CreateTempDB(t)
	posts := NewPostStore(db)
	owner := utils.TestCreateUser(t, db, "alice")
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		utils.TestCreatePost(t, db, owner.Id, string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
	}

	page, err := posts.ListPosts(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.Equal(t, "e", page[0].Caption)
	require.Equal(t, "d", page[1].Caption)
	require.Equal(t, "c", page[2].Caption)

	rest, err := posts.ListPosts(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Equal(t, "b", rest[0].Caption)
	require.Equal(t, "a", rest[1].Caption)

	total, err := posts.CountPosts(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
}

func TestListPostsSkipsExpiredAndPrivate(t *testing.T) {
	db := utils.CreateTempDB(t)
	posts := NewPostStore(db)
	owner := utils.TestCreateUser(t, db, "alice")
	ctx := context.Background()

	utils.TestCreatePost(t, db, owner.Id, "fresh", time.Now())

	expired := utils.TestCreatePost(t, db, owner.Id, "stale", time.Now().Add(-48*time.Hour))
	require.True(t, expired.ExpiresAt.Before(time.Now()))

	hidden := utils.TestCreatePost(t, db, owner.Id, "hidden", time.Now())
	require.NoError(t, db.Model(hidden).UpdateColumn("is_public", false).Error)

	// Expired-but-unswept and private posts never reach the feed even though
	// their rows still exist.
	page, err := posts.ListPosts(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "fresh", page[0].Caption)

	total, err := posts.CountPosts(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}

func TestDeletePostCascades(t *testing.T) {
	db := utils.CreateTempDB(t)
	posts := NewPostStore(db)
	views := NewViewLedger(db)
	owner := utils.TestCreateUser(t, db, "alice")
	viewer := utils.TestCreateUser(t, db, "bob")
	ctx := context.Background()

	post, err := posts.CreatePost(ctx, CreatePostInput{
		OwnerID:     owner.Id,
		ImageData:   []byte("img"),
		RawHashtags: "#one #two",
		IsPublic:    true,
	})
	require.NoError(t, err)

	created, err := views.MarkViewed(ctx, post.Id, viewer.Id)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, posts.DeletePost(ctx, post.Id))

	// Cascade removed the view record, not just the post.
	viewed, err := views.HasViewed(ctx, post.Id, viewer.Id)
	require.NoError(t, err)
	require.False(t, viewed)

	var hashtagCount int64
	require.NoError(t, db.Model(&model.Hashtag{}).Where("post_id = ?", post.Id).Count(&hashtagCount).Error)
	require.Zero(t, hashtagCount)

	require.ErrorIs(t, posts.DeletePost(ctx, post.Id), ErrNotFound)
}

func TestSweepExpired(t *testing.T) {
	db := utils.CreateTempDB(t)
	posts := NewPostStore(db)
	views := NewViewLedger(db)
	owner := utils.TestCreateUser(t, db, "alice")
	viewer := utils.TestCreateUser(t, db, "bob")
	ctx := context.Background()

	now := time.Now()
	gone := utils.TestCreatePost(t, db, owner.Id, "gone", now.Add(-25*time.Hour))
	edge := utils.TestCreatePost(t, db, owner.Id, "edge", now.Add(-24*time.Hour))
	kept := utils.TestCreatePost(t, db, owner.Id, "kept", now)

	_, err := views.MarkViewed(ctx, gone.Id, viewer.Id)
	require.NoError(t, err)

	// Removes exactly the posts with expiry <= now: both stale posts go, the
	// fresh one stays.
	removed, err := posts.SweepExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	_, err = posts.GetPost(ctx, gone.Id, owner.Id)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = posts.GetPost(ctx, edge.Id, owner.Id)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = posts.GetPost(ctx, kept.Id, owner.Id)
	require.NoError(t, err)

	viewed, err := views.HasViewed(ctx, gone.Id, viewer.Id)
	require.NoError(t, err)
	require.False(t, viewed)

	// Idempotent: the second sweep with the same now removes nothing.
	removed, err = posts.SweepExpired(ctx, now)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestDailyPostCount(t *testing.T) {
	db := utils.CreateTempDB(t)
	posts := NewPostStore(db)
	owner := utils.TestCreateUser(t, db, "alice")
	other := utils.TestCreateUser(t, db, "bob")
	ctx := context.Background()

	now := time.Now()
	since := now.Add(-time.Hour)
	utils.TestCreatePost(t, db, owner.Id, "in-window", now.Add(-30*time.Minute))
	utils.TestCreatePost(t, db, owner.Id, "before-window", now.Add(-2*time.Hour))
	utils.TestCreatePost(t, db, other.Id, "someone-else", now.Add(-30*time.Minute))

	count, err := posts.DailyPostCount(ctx, owner.Id, since)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
