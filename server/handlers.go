package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/snapfeed-app/snapfeed/feed"
	"github.com/snapfeed-app/snapfeed/model"
	"github.com/snapfeed-app/snapfeed/server/middlewares"
	"github.com/snapfeed-app/snapfeed/store"
	"github.com/snapfeed-app/snapfeed/utils"
	. "github.com/snapfeed-app/snapfeed/utils/log"
)

const (
	maxImageBytes = 10 << 20 // 10MB

	tokenLifetime = 24 * time.Hour

	bcryptCost = 10
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// internalError logs the real cause and returns a generic message, internal
// detail never leaks to the client.
func internalError(c *gin.Context, err error) {
	Log.Error("internal error: ", err)
	fail(c, http.StatusInternalServerError, "an unexpected error occurred")
}

// Health is the unauthenticated liveness probe.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "server is running"})
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Signup registers a new account. Username and email are both unique; the
// error message tells the caller which one collided.
func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username, email, and password are required")
		return
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		internalError(c, err)
		return
	}
	if count > 0 {
		fail(c, http.StatusBadRequest, "this username is already taken")
		return
	}
	if err := s.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		internalError(c, err)
		return
	}
	if count > 0 {
		fail(c, http.StatusBadRequest, "this email is already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		internalError(c, err)
		return
	}

	user := &model.User{
		Id:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.db.Create(user).Error; err != nil {
		// Duplicates are caught by the pre-checks above; whatever gets here is
		// a storage failure, not the caller's fault.
		internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user": gin.H{
			"id":       user.Id,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the password and issues a 24h token. Unknown user and wrong
// password are deliberately indistinguishable.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	var user model.User
	res := s.db.Where("username = ? AND is_active = ?", req.Username, true).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			fail(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		internalError(c, res.Error)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "invalid username or password")
		return
	}

	now := time.Now()
	token, err := middlewares.SignToken(user.Id, user.Username, user.IsAdmin, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	})
	if err != nil {
		internalError(c, err)
		return
	}

	if err := s.db.Model(&user).UpdateColumn("last_login", now).Error; err != nil {
		// The login itself already succeeded, don't fail it over bookkeeping.
		Log.Error("fail to update last login: ", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":       user.Id,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// UploadSnap accepts a multipart image plus metadata and submits it through
// the feed assembler, which owns the daily quota. No side effect happens on a
// rejected upload.
func (s *Server) UploadSnap(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "no image file provided")
		return
	}
	if header.Size > maxImageBytes {
		fail(c, http.StatusBadRequest, "image exceeds the 10MB limit")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if !utils.ContainsString(allowedImageTypes, mimeType) {
		fail(c, http.StatusBadRequest, "invalid file type, only JPG, PNG, GIF and WEBP are allowed")
		return
	}

	file, err := header.Open()
	if err != nil {
		internalError(c, err)
		return
	}
	defer file.Close()
	imageData, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		internalError(c, err)
		return
	}

	summary, err := s.assembler.SubmitPost(c.Request.Context(), store.CreatePostInput{
		OwnerID:     c.GetString(middlewares.ContextUserID),
		ImageData:   imageData,
		MimeType:    mimeType,
		Caption:     c.PostForm("caption"),
		RawHashtags: c.PostForm("hashtags"),
		Location:    c.PostForm("location"),
		IsPublic:    c.PostForm("private") != "true",
	})
	if err != nil {
		var quotaErr *feed.QuotaExceededError
		switch {
		case errors.As(err, &quotaErr):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": quotaErr.Error(),
				"current": quotaErr.Current,
				"limit":   quotaErr.Limit,
			})
		case store.IsValidationError(err):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "snap": summary})
}

// Feed returns one partitioned, paginated page of the viewer's feed.
func (s *Server) Feed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	feedPage, err := s.assembler.GetFeedPage(c.Request.Context(), c.GetString(middlewares.ContextUserID), page, pageSize)
	if err != nil {
		if store.IsValidationError(err) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"unseenPosts":         feedPage.UnseenPosts,
		"seenPosts":           feedPage.SeenPosts,
		"pagination":          feedPage.Pagination,
		"dailySnapsRemaining": feedPage.DailySnapsRemaining,
	})
}

// GetSnap returns a single snap. Private snaps of other users 404 like
// missing ones.
func (s *Server) GetSnap(c *gin.Context) {
	post, err := s.posts.GetPost(c.Request.Context(), c.Param("id"), c.GetString(middlewares.ContextUserID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "snap not found")
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "snap": feed.Summarize(post)})
}

// SnapImage serves the stored image bytes with a long-lived cache header,
// snaps are immutable once uploaded. The route sits outside the JWT group so
// plain <img> tags work, but a bearer still counts: the owner of a private
// snap can load their own image.
func (s *Server) SnapImage(c *gin.Context) {
	post, err := s.posts.GetPost(c.Request.Context(), c.Param("id"), middlewares.OptionalUserID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.String(http.StatusNotFound, "image not found")
			return
		}
		internalError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Data(http.StatusOK, post.MimeType, post.ImageData)
}

// MarkViewed records the viewer's first view of a snap. Idempotent, a repeat
// reports created=false.
func (s *Server) MarkViewed(c *gin.Context) {
	created, err := s.views.MarkViewed(c.Request.Context(), c.Param("id"), c.GetString(middlewares.ContextUserID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "snap not found")
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}

// DeleteSnap removes a snap and everything hanging off it. Owners may delete
// their own snaps, admins may delete any (moderation).
func (s *Server) DeleteSnap(c *gin.Context) {
	viewerID := c.GetString(middlewares.ContextUserID)

	post, err := s.posts.GetPost(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "snap not found")
			return
		}
		internalError(c, err)
		return
	}
	if post.OwnerID != viewerID && !c.GetBool(middlewares.ContextIsAdmin) {
		fail(c, http.StatusForbidden, "access denied")
		return
	}

	if err := s.posts.DeletePost(c.Request.Context(), post.Id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, http.StatusNotFound, "snap not found")
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "snap deleted successfully"})
}
