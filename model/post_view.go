package model

import "time"

/*

PostView is the durable fact that a viewer has seen a post

PostID: post id
ViewerID: viewer's user id
CreatedAt: time of the first view

The composite primary key enforces at most one record per (post, viewer)
pair at the storage layer; a repeated mark-as-viewed is a no-op, not an
error. Records only go away when their post is deleted (cascade), they
have no lifecycle of their own.

*/

type PostView struct {
	PostID    string `gorm:"primaryKey"`
	ViewerID  string `gorm:"primaryKey"`
	CreatedAt time.Time
}
