package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/http/response"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
	"github.com/yungbote/fieldlog-backend/internal/services"
)

const defaultStalledThresholdMs = 300000

type JobHandler struct {
	log *logger.Logger
	svc services.JobService
}

func NewJobHandler(log *logger.Logger, svc services.JobService) *JobHandler {
	return &JobHandler{
		log: log.With("handler", "JobHandler"),
		svc: svc,
	}
}

func (h *JobHandler) Create(c *gin.Context) {
	var in services.CreateJobInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	job, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"id": job.ID})
}

func (h *JobHandler) Get(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}
	job, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if job == nil {
		response.NotFound(c, "job not found")
		return
	}
	response.OK(c, job)
}

func (h *JobHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	jobs, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, jobs)
}

func (h *JobHandler) Pause(c *gin.Context) {
	h.control(c, h.svc.Pause, "paused")
}

func (h *JobHandler) Resume(c *gin.Context) {
	h.control(c, h.svc.Resume, "queued")
}

func (h *JobHandler) Cancel(c *gin.Context) {
	h.control(c, h.svc.Cancel, "canceled")
}

func (h *JobHandler) control(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error, result string) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "job not found")
		case errors.Is(err, repos.ErrIllegalTransition):
			response.Error(c, http.StatusConflict, err)
		default:
			response.FromError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"id": id, "status": result})
}

// ---- maintenance ----

type recoverStalledRequest struct {
	StalledThresholdMs *int `json:"stalledThresholdMs"`
}

func (h *JobHandler) RecoverStalled(c *gin.Context) {
	ms := defaultStalledThresholdMs
	if c.Request.ContentLength > 0 {
		var in recoverStalledRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			response.Error(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if in.StalledThresholdMs != nil {
			ms = *in.StalledThresholdMs
		}
	}
	if ms <= 0 {
		response.Error(c, http.StatusBadRequest, fmt.Errorf("invalid stalledThresholdMs"))
		return
	}
	n, err := h.svc.RecoverStalled(c.Request.Context(), time.Duration(ms)*time.Millisecond)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"recoveredCount": n})
}

func (h *JobHandler) PauseAll(c *gin.Context) {
	n, err := h.svc.PauseAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"pausedCount": n})
}

func (h *JobHandler) CancelAll(c *gin.Context) {
	n, err := h.svc.CancelAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"canceledCount": n})
}

func parseJobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, fmt.Errorf("invalid job id"))
		return uuid.Nil, false
	}
	return id, true
}
