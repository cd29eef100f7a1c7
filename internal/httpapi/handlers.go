package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/mediaid"
	"github.com/llehouerou/wavecast/internal/playback"
)

type handler struct {
	backend Backend
	logger  *zap.Logger
}

func (h *handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)))
}

func (h *handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// browse lists the children of ?id=, the root when absent.
func (h *handler) browse(c *gin.Context) {
	id := c.DefaultQuery("id", mediaid.Root)
	items, err := h.backend.Children(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "items": toMediaItems(items)})
}

func (h *handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, toState(h.backend.Snapshot()))
}

func (h *handler) queue(c *gin.Context) {
	c.JSON(http.StatusOK, toQueue(h.backend.Snapshot()))
}

func (h *handler) skipToQueueItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("queueId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid queue id"})
		return
	}
	if !h.backend.SkipToQueueItem(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "queue item not found"})
		return
	}
	h.state(c)
}

func (h *handler) transport(c *gin.Context) {
	switch cmd := c.Param("cmd"); cmd {
	case "play":
		h.backend.Play()
	case "pause":
		h.backend.Pause()
	case "stop":
		h.backend.Stop()
	case "next":
		h.backend.SkipToNext()
	case "previous":
		h.backend.SkipToPrevious()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown command: " + cmd})
		return
	}
	h.state(c)
}

func (h *handler) play(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.backend.PlayFromMediaID(req.MediaID); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c)
}

func (h *handler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.backend.PlayFromSearch(c.Request.Context(), req.Query, req.Extras); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c)
}

func (h *handler) seek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.PositionMs > maxPositionMs {
		c.JSON(http.StatusBadRequest, gin.H{"error": "positionMs out of range"})
		return
	}
	h.backend.SeekTo(time.Duration(*req.PositionMs) * time.Millisecond)
	h.state(c)
}

func (h *handler) favorite(c *gin.Context) {
	if err := h.backend.CustomAction(playback.CustomActionThumbsUp); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c)
}

func (h *handler) command(c *gin.Context) {
	if err := h.backend.HandleCommand(c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c)
}

func (h *handler) connectCast(c *gin.Context) {
	var req castRequest
	// an empty body selects the first renderer found
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.backend.ConnectCast(c.Request.Context(), req.Device); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c)
}

func (h *handler) disconnectCast(c *gin.Context) {
	if err := h.backend.DisconnectCast(); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c)
}
