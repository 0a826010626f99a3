package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/snapfeed-app/snapfeed/model"
	. "github.com/snapfeed-app/snapfeed/utils/log"
)

// DefaultTTL is how long a snap stays around when the uploader doesn't pick a
// lifetime explicitly.
const DefaultTTL = 24 * time.Hour

// PostStore owns the post lifecycle: creation, lookup, listing, deletion and
// the expiry sweep. It is the only writer of the posts and hashtags tables.
type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

// CreatePostInput carries everything an upload provides. RawHashtags is the
// free-text field from the client, parsed here.
type CreatePostInput struct {
	OwnerID     string
	ImageData   []byte
	MimeType    string
	Caption     string
	RawHashtags string
	Location    string
	TTL         time.Duration
	IsPublic    bool
}

// CreatePost persists a new post and its hashtags in one transaction. The id
// and creation timestamp are assigned here; expiry defaults to DefaultTTL
// past creation when no TTL is given.
func (s *PostStore) CreatePost(ctx context.Context, input CreatePostInput) (*model.Post, error) {
	if input.OwnerID == "" {
		return nil, NewValidationError("owner is required")
	}
	if len(input.ImageData) == 0 {
		return nil, NewValidationError("image is required")
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	post := &model.Post{
		Id:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: &expiresAt,
		OwnerID:   input.OwnerID,
		ImageData: input.ImageData,
		MimeType:  input.MimeType,
		Caption:   input.Caption,
		Location:  input.Location,
		IsPublic:  input.IsPublic,
	}
	for idx, tag := range ParseHashtags(input.RawHashtags) {
		post.Hashtags = append(post.Hashtags, model.Hashtag{
			Id:       uuid.New().String(),
			PostID:   post.Id,
			Tag:      tag,
			Position: idx,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to create post")
	}
	return post, nil
}

// GetPost returns the post with the given id, with hashtags and owner
// preloaded. A private post is only returned to its owner; to anyone else it
// doesn't exist.
func (s *PostStore) GetPost(ctx context.Context, id string, viewerID string) (*model.Post, error) {
	var post model.Post
	res := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Hashtags", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("id = ?", id).
		First(&post)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(res.Error, "fail to query post")
	}
	if !post.IsPublic && post.OwnerID != viewerID {
		return nil, ErrNotFound
	}
	return &post, nil
}

// visible restricts a query to public, not-yet-expired posts. An expired but
// not yet swept post is excluded here even though its row still exists.
func visible(db *gorm.DB) *gorm.DB {
	return db.Where("is_public = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())
}

// ListPosts returns one page of visible posts, newest first. This is the
// single ordering rule the whole feed depends on.
func (s *PostStore) ListPosts(ctx context.Context, limit int, offset int) ([]*model.Post, error) {
	var posts []*model.Post
	err := s.db.WithContext(ctx).
		Scopes(visible).
		Preload("Owner").
		Preload("Hashtags", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list posts")
	}
	return posts, nil
}

// CountPosts returns how many posts are currently visible, for pagination
// totals.
func (s *PostStore) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Post{}).Scopes(visible).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "fail to count posts")
	}
	return count, nil
}

// DeletePost removes a post together with its hashtags and view records in
// one transaction. Dependent rows go first, the same order the foreign keys
// demand.
func (s *PostStore) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Hashtag{}).Error; err != nil {
			return errors.Wrap(err, "fail to delete hashtags")
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.PostView{}).Error; err != nil {
			return errors.Wrap(err, "fail to delete view records")
		}
		res := tx.Where("id = ?", id).Delete(&model.Post{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "fail to delete post")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SweepExpired removes every post whose expiry is at or before now, cascading
// to hashtags and view records. Idempotent: a second sweep with the same now
// removes nothing. Safe to run concurrently with reads, a read may still
// return an expired-but-unswept post for a moment.
func (s *PostStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.Post{}).
			Where("expires_at IS NOT NULL AND expires_at <= ?", now).
			Pluck("id", &ids).Error; err != nil {
			return errors.Wrap(err, "fail to find expired posts")
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&model.Hashtag{}).Error; err != nil {
			return errors.Wrap(err, "fail to delete expired hashtags")
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&model.PostView{}).Error; err != nil {
			return errors.Wrap(err, "fail to delete expired view records")
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Post{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "fail to delete expired posts")
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		Log.Info("expiry sweep removed posts: ", removed)
	}
	return removed, nil
}

// DailyPostCount counts the posts an owner created at or after since,
// regardless of visibility or expiry. It backs the daily upload quota.
func (s *PostStore) DailyPostCount(ctx context.Context, ownerID string, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("owner_id = ? AND created_at >= ?", ownerID, since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "fail to count daily posts")
	}
	return count, nil
}
