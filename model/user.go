package model

import "time"

/*

User is a registered account that can upload snaps and view the feed

Id: primary key, use to identify a user
CreatedAt: time when entity is created
LastLogin: time of the most recent successful login

Username: unique handle, also the display name surfaced in the feed
Email: unique contact address, only used at signup/login time
PasswordHash: bcrypt hash, never serialized to any response
IsAdmin: admin accounts may delete any snap (moderation)

*/

type User struct {
	Id                string `gorm:"primaryKey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastLogin         *time.Time
	Username          string `gorm:"uniqueIndex;not null"`
	Email             string `gorm:"uniqueIndex;not null"`
	PasswordHash      string `gorm:"not null" json:"-"`
	ProfilePictureUrl string
	Bio               string
	IsActive          bool `gorm:"default:true"`
	IsAdmin           bool `gorm:"default:false"`
}
