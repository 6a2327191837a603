package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/worker"
)

const maxDeadLetters = 100

// JobsHandler exposes the thumbnail dead-letter list for manual inspection.
type JobsHandler struct {
	rdb *redis.Client // nil when Redis is not configured
}

func NewJobsHandler(rdb *redis.Client) *JobsHandler {
	return &JobsHandler{rdb: rdb}
}

type deadLettersResponse struct {
	Queue   string            `json:"queue"`
	Length  int64             `json:"length"`
	Entries []worker.DLQEntry `json:"entries"`
}

// DeadLetters lists the most recent failed thumbnail jobs. ?limit defaults to 20.
func (h *JobsHandler) DeadLetters(c *gin.Context) {
	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 || v > maxDeadLetters {
			c.JSON(http.StatusBadRequest, apierror.New("limit must be an integer between 1 and 100"))
			return
		}
		limit = v
	}

	resp := deadLettersResponse{Queue: worker.QueueThumbnails, Entries: []worker.DLQEntry{}}
	if h.rdb == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx := c.Request.Context()
	n, err := worker.DLQLength(ctx, h.rdb, worker.QueueThumbnails)
	if err != nil {
		respondError(c, err)
		return
	}
	entries, err := worker.PeekDLQ(ctx, h.rdb, worker.QueueThumbnails, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	resp.Length = n
	resp.Entries = entries
	c.JSON(http.StatusOK, resp)
}
