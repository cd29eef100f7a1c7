// Package httpapi exposes browsing and transport control over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/dlna"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/service"
	"github.com/llehouerou/wavecast/internal/session"
)

const shutdownTimeout = 5 * time.Second

// Backend is the music service driven by the API.
type Backend interface {
	Children(ctx context.Context, mediaID string) ([]catalog.MediaItem, error)
	Snapshot() session.Snapshot

	Play()
	Pause()
	Stop()
	SkipToNext()
	SkipToPrevious()
	SeekTo(pos time.Duration)
	SkipToQueueItem(queueID int64) bool
	PlayFromMediaID(mediaID string) error
	PlayFromSearch(ctx context.Context, query string, extras map[string]string) error
	CustomAction(action string) error

	HandleCommand(cmd string) error

	ConnectCast(ctx context.Context, device string) error
	DisconnectCast() error
}

// NewRouter builds the API routes on a fresh gin engine.
func NewRouter(b Backend, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{backend: b, logger: logger.Named("http")}

	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests)

	api := r.Group("/api")
	{
		api.GET("/browse", h.browse)
		api.GET("/state", h.state)
		api.GET("/queue", h.queue)
		api.POST("/queue/:queueId", h.skipToQueueItem)

		api.POST("/transport/:cmd", h.transport)
		api.POST("/play", h.play)
		api.POST("/search", h.search)
		api.POST("/seek", h.seek)
		api.POST("/favorite", h.favorite)
		api.POST("/command/:name", h.command)

		api.POST("/cast", h.connectCast)
		api.DELETE("/cast", h.disconnectCast)
	}
	return r
}

// Server serves the API until shut down.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, b Backend, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(b, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Named("http"),
	}
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server", zap.Error(err))
		}
	}()
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// statusFor maps backend errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, playback.ErrNoMatch),
		errors.Is(err, dlna.ErrDeviceNotFound),
		errors.Is(err, catalog.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, playback.ErrUnsupportedAction),
		errors.Is(err, service.ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, playback.ErrNoCurrentItem),
		errors.Is(err, service.ErrNotCasting):
		return http.StatusConflict
	case errors.Is(err, service.ErrCastDisabled),
		errors.Is(err, service.ErrFocusUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
