package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/snapfeed-app/snapfeed/model"
)

// ViewLedger owns the per-(post, viewer) first-view records. The at-most-one
// record invariant is enforced with an insert-if-absent at the storage layer,
// never with an application-level check-then-insert.
//
// An optional ViewStatusCache accelerates the read side; the database stays
// authoritative, a cache miss always falls back to it.
type ViewLedger struct {
	db    *gorm.DB
	cache *ViewStatusCache
}

func NewViewLedger(db *gorm.DB) *ViewLedger {
	return &ViewLedger{db: db}
}

// WithCache attaches a read-status cache. Safe to skip entirely.
func (l *ViewLedger) WithCache(cache *ViewStatusCache) *ViewLedger {
	l.cache = cache
	return l
}

// MarkViewed records that viewer has seen post. The first call per pair
// creates the record and bumps the post's view counter in the same
// transaction; every later call is a no-op returning created=false. Returns
// ErrNotFound when the post doesn't exist or isn't visible to the viewer, a
// private snap must not leak its existence through this path either.
func (l *ViewLedger) MarkViewed(ctx context.Context, postID string, viewerID string) (bool, error) {
	created := false
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&model.Post{}).
			Where("id = ? AND (is_public = ? OR owner_id = ?)", postID, true, viewerID).
			Count(&exists).Error; err != nil {
			return errors.Wrap(err, "fail to check post existence")
		}
		if exists == 0 {
			return ErrNotFound
		}

		record := &model.PostView{PostID: postID, ViewerID: viewerID, CreatedAt: time.Now()}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
		if res.Error != nil {
			return errors.Wrap(res.Error, "fail to insert view record")
		}
		if res.RowsAffected == 0 {
			// Duplicate mark, nothing to do.
			return nil
		}
		created = true
		return tx.Model(&model.Post{}).Where("id = ?", postID).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	})
	if err != nil {
		return false, err
	}

	if created && l.cache != nil {
		// Best effort write-through; the ledger row already committed.
		l.cache.MarkViewed(ctx, viewerID, []string{postID})
	}
	return created, nil
}

// HasViewed reports whether a view record exists for the pair.
func (l *ViewLedger) HasViewed(ctx context.Context, postID string, viewerID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&model.PostView{}).
		Where("post_id = ? AND viewer_id = ?", postID, viewerID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "fail to query view record")
	}
	return count > 0, nil
}

// UnseenPostIds returns the subset of candidateIds the viewer has not seen
// yet. A pure read: it never returns an id that has a view record for this
// viewer.
func (l *ViewLedger) UnseenPostIds(ctx context.Context, viewerID string, candidateIds []string) (map[string]bool, error) {
	unseen := make(map[string]bool, len(candidateIds))
	if len(candidateIds) == 0 {
		return unseen, nil
	}

	remaining := candidateIds
	if l.cache != nil {
		// The cache can only confirm "seen" (it is populated on mark), so ids
		// it doesn't know about still go to the database.
		if cached, err := l.cache.ViewedStatus(ctx, viewerID, candidateIds); err == nil {
			remaining = remaining[:0:0]
			for _, id := range candidateIds {
				if !cached[id] {
					remaining = append(remaining, id)
				}
			}
		}
	}
	if len(remaining) == 0 {
		return unseen, nil
	}

	var seenIds []string
	err := l.db.WithContext(ctx).Model(&model.PostView{}).
		Where("viewer_id = ? AND post_id IN ?", viewerID, remaining).
		Pluck("post_id", &seenIds).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to query view records")
	}

	seen := make(map[string]bool, len(seenIds))
	for _, id := range seenIds {
		seen[id] = true
	}
	for _, id := range remaining {
		if !seen[id] {
			unseen[id] = true
		}
	}
	return unseen, nil
}
