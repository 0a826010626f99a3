package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/snapfeed-app/snapfeed/model"
)

// TestCreateUser seeds a user row directly, bypassing the signup endpoint.
func TestCreateUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Id:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// TestCreatePost seeds a post row with an explicit creation timestamp so
// ordering tests don't need to sleep. Expiry defaults to a day past creation.
func TestCreatePost(t *testing.T, db *gorm.DB, ownerID string, caption string, createdAt time.Time) *model.Post {
	t.Helper()
	expiresAt := createdAt.Add(24 * time.Hour)
	post := &model.Post{
		Id:        uuid.New().String(),
		CreatedAt: createdAt,
		ExpiresAt: &expiresAt,
		OwnerID:   ownerID,
		ImageData: []byte("fake-image-bytes"),
		MimeType:  "image/jpeg",
		Caption:   caption,
		IsPublic:  true,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
