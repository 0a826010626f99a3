package model

import "time"

// Hashtag is a single parsed tag of a post. Position keeps the insertion
// order stable, creation timestamps alone can collide within one upload.
type Hashtag struct {
	Id        string `gorm:"primaryKey"`
	PostID    string `gorm:"index:idx_hashtag_post;not null"`
	Tag       string `gorm:"index:idx_hashtag_tag;not null"`
	Position  int    `gorm:"not null"`
	CreatedAt time.Time
}
