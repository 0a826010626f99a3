package model

import "time"

/*

Post is one user-submitted image snap

Id: primary key, use to identify a snap
CreatedAt: time when entity is created, the single ordering key the feed
depends on (newest first)
ExpiresAt: when set, the snap disappears from the feed once passed and is
removed by the expiry sweeper. Must be strictly after CreatedAt.

OwnerID:
Owner: user who uploaded the snap, "belongs-to" relation, immutable after creation

ImageData: raw image bytes, served back via the image endpoint
MimeType: content type of ImageData
Caption: optional free text
Location: optional free text
Hashtags: parsed tags in insertion order, "has-many" relation, removed with the post

ViewCount: number of distinct viewers, monotonically non-decreasing, bumped on
first view only
IsPublic: private snaps are only visible to their owner; to everyone else they
are indistinguishable from a missing snap

*/

type Post struct {
	Id        string     `gorm:"primaryKey"`
	CreatedAt time.Time  `gorm:"index:idx_post_created"`
	ExpiresAt *time.Time `gorm:"index:idx_post_expires"`
	OwnerID   string     `gorm:"index:idx_post_owner_created;not null"`
	Owner     User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ImageData []byte
	MimeType  string
	Caption   string
	Location  string
	Hashtags  []Hashtag `gorm:"constraint:OnDelete:CASCADE;"`
	ViewCount int64     `gorm:"default:0"`
	IsPublic  bool      `gorm:"default:true"`
}
