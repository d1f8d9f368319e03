package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ai-calling-agent/internal/assistant"
	"ai-calling-agent/internal/calls"
	"ai-calling-agent/internal/health"
	"ai-calling-agent/internal/reporting"
	"ai-calling-agent/internal/voice"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 10

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Version string

	Assistant *assistant.Service
	Voice     *voice.Service
	Calls     *calls.Service
	Reporting *reporting.Service
	Health    *health.Service
}

type initiateCallRequest struct {
	PhoneNumber string `form:"phone_number" json:"phone_number" binding:"required"`
	Purpose     string `form:"purpose" json:"purpose" binding:"required"`
}

type textToSpeechRequest struct {
	Text  string `form:"text" json:"text" binding:"required"`
	Voice string `form:"voice" json:"voice"`
}

type speechToTextRequest struct {
	AudioData string `form:"audio_data" json:"audio_data" binding:"required"`
}

func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func internalError(c *gin.Context, prefix string, err error) {
	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, fmt.Sprintf("%s: %s", prefix, err.Error()))
}

// callError maps tracker errors to HTTP status at the boundary.
func callError(c *gin.Context, prefix string, err error) {
	switch {
	case errors.Is(err, calls.ErrNotFound):
		abort(c, http.StatusNotFound, "Call not found")
	case errors.Is(err, calls.ErrInvalidArgument):
		abort(c, http.StatusBadRequest, err.Error())
	default:
		internalError(c, prefix, err)
	}
}

func (h Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "AI Calling Agent API",
		"status":  "active",
		"version": h.Version,
		"docs":    "/docs",
	})
}

func (h Handlers) HealthCheck(c *gin.Context) {
	if h.Health == nil {
		abort(c, http.StatusInternalServerError, "health not configured")
		return
	}
	c.JSON(http.StatusOK, h.Health.Check(c.Request.Context()))
}

// --- Conversation ---

func (h Handlers) Conversation(c *gin.Context) {
	var req assistant.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	resp, err := h.Assistant.Respond(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyMessage) {
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
		internalError(c, "Conversation error", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// --- Calls ---

// InitiateCall creates the session and returns before processing starts.
// phone_number and purpose are accepted as query params, form fields or JSON.
func (h Handlers) InitiateCall(c *gin.Context) {
	var req initiateCallRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, http.StatusBadRequest, "phone_number and purpose are required")
		return
	}

	callID, err := h.Calls.Initiate(c.Request.Context(), req.PhoneNumber, req.Purpose)
	if err != nil {
		callError(c, "Call initiation error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"call_id":      callID,
		"status":       calls.StatusInitiated,
		"phone_number": req.PhoneNumber,
		"timestamp":    time.Now().UTC(),
	})
}

func (h Handlers) GetCall(c *gin.Context) {
	rec, err := h.Calls.Get(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		callError(c, "Call lookup error", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) GetTranscript(c *gin.Context) {
	callID := c.Param("call_id")
	turns, err := h.Calls.Transcript(c.Request.Context(), callID)
	if err != nil {
		callError(c, "Transcript error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_id": callID, "transcript": turns})
}

func (h Handlers) EndCall(c *gin.Context) {
	callID := c.Param("call_id")
	if !h.Calls.End(c.Request.Context(), callID) {
		abort(c, http.StatusNotFound, "Call not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_id": callID, "status": calls.StatusEnded})
}

// --- History ---

func (h Handlers) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abort(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	out, err := h.Calls.History(c.Request.Context(), limit)
	if err != nil {
		callError(c, "History error", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) HistorySummary(c *gin.Context) {
	if h.Reporting == nil {
		abort(c, http.StatusInternalServerError, "reporting not configured")
		return
	}
	out, err := h.Reporting.CallsSummary(c.Request.Context())
	if err != nil {
		internalError(c, "Summary error", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Voice ---

func (h Handlers) TextToSpeech(c *gin.Context) {
	var req textToSpeechRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, http.StatusBadRequest, "text is required")
		return
	}
	req.Voice = strings.TrimSpace(req.Voice)
	if req.Voice == "" {
		req.Voice = voice.DefaultVoice
	}

	url, err := h.Voice.TextToSpeech(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		internalError(c, "TTS error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio_url": url, "text": req.Text, "voice": req.Voice})
}

func (h Handlers) SpeechToText(c *gin.Context) {
	var req speechToTextRequest
	if err := c.ShouldBind(&req); err != nil {
		abort(c, http.StatusBadRequest, "audio_data is required")
		return
	}

	text, err := h.Voice.SpeechToText(c.Request.Context(), req.AudioData)
	if err != nil {
		internalError(c, "STT error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text, "timestamp": time.Now().UTC()})
}
