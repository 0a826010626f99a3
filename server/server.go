package server

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapfeed-app/snapfeed/feed"
	"github.com/snapfeed-app/snapfeed/server/fanout"
	"github.com/snapfeed-app/snapfeed/server/middlewares"
	"github.com/snapfeed-app/snapfeed/store"
)

// Server wires the stores, the feed assembler and the fanout hub behind the
// REST surface.
type Server struct {
	db        *gorm.DB
	posts     *store.PostStore
	views     *store.ViewLedger
	assembler *feed.Assembler
	hub       *fanout.Hub
}

// New builds a fully wired server. cache may be nil, the view ledger then
// reads straight from the database.
func New(db *gorm.DB, cache *store.ViewStatusCache) *Server {
	posts := store.NewPostStore(db)
	views := store.NewViewLedger(db)
	if cache != nil {
		views = views.WithCache(cache)
	}
	hub := fanout.NewHub()
	return &Server{
		db:        db,
		posts:     posts,
		views:     views,
		assembler: feed.NewAssembler(posts, views, hub),
		hub:       hub,
	}
}

// PostStore exposes the store for background jobs (expiry sweeper).
func (s *Server) PostStore() *store.PostStore { return s.posts }

// Hub exposes the fanout registry, mostly for tests.
func (s *Server) Hub() *fanout.Hub { return s.hub }

// RegisterRoutes attaches every endpoint to the router. Everything except
// signup, login, the image bytes and the health check sits behind the JWT
// middleware.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/health", s.Health)
	router.POST("/api/signup", s.Signup)
	router.POST("/api/login", s.Login)
	router.GET("/api/snaps/image/:id", s.SnapImage)

	authed := router.Group("/", middlewares.JWT())
	authed.POST("/api/snaps", s.UploadSnap)
	authed.GET("/api/feed", s.Feed)
	authed.GET("/api/snaps/:id", s.GetSnap)
	authed.POST("/api/snaps/:id/view", s.MarkViewed)
	authed.DELETE("/api/snaps/:id", s.DeleteSnap)
	authed.GET("/ws", s.Subscribe)
}
