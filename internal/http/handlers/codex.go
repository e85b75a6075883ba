package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/fieldlog-backend/internal/http/response"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
	"github.com/yungbote/fieldlog-backend/internal/services"
)

// CodexHandler exposes the generated artifacts: summaries, audio logs, and
// prompt overrides.
type CodexHandler struct {
	log *logger.Logger
	svc services.CodexService
}

func NewCodexHandler(log *logger.Logger, svc services.CodexService) *CodexHandler {
	return &CodexHandler{
		log: log.With("handler", "CodexHandler"),
		svc: svc,
	}
}

func parseEntryID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, fmt.Errorf("invalid entry id"))
		return 0, false
	}
	return id, true
}

func (h *CodexHandler) GetSummary(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	s, err := h.svc.GetSummary(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if s == nil {
		response.NotFound(c, "summary not found")
		return
	}
	response.OK(c, s)
}

func (h *CodexHandler) ListSummaries(c *gin.Context) {
	generationID, _ := strconv.Atoi(c.DefaultQuery("generation_id", "0"))
	out, err := h.svc.ListSummaries(c.Request.Context(), generationID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, out)
}

func (h *CodexHandler) DeleteSummary(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteSummary(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}

func (h *CodexHandler) GetAudioLog(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	a, err := h.svc.GetAudioLog(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if a == nil {
		response.NotFound(c, "audio log not found")
		return
	}
	response.OK(c, a)
}

func (h *CodexHandler) ListAudioLogs(c *gin.Context) {
	generationID, _ := strconv.Atoi(c.DefaultQuery("generation_id", "0"))
	out, err := h.svc.ListAudioLogs(c.Request.Context(), generationID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, out)
}

func (h *CodexHandler) DeleteAudioLog(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteAudioLog(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}

// ---- prompts ----

type setPromptRequest struct {
	Content string `json:"content"`
}

func (h *CodexHandler) GetPrompt(c *gin.Context) {
	p, err := h.svc.GetPrompt(c.Request.Context(), c.Param("type"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if p == nil {
		response.NotFound(c, "prompt not found")
		return
	}
	response.OK(c, p)
}

func (h *CodexHandler) SetPrompt(c *gin.Context) {
	var in setPromptRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := h.svc.SetPrompt(c.Request.Context(), c.Param("type"), in.Content); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"type": c.Param("type")})
}

func (h *CodexHandler) DeletePrompt(c *gin.Context) {
	if err := h.svc.DeletePrompt(c.Request.Context(), c.Param("type")); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": c.Param("type")})
}
