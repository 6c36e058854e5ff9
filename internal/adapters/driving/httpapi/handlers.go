package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// ingestRequest is the POST /ingest body.
type ingestRequest struct {
	// Source overrides the configured source directory.
	Source string `json:"source"`
}

// chatRequest is the POST /chat body.
type chatRequest struct {
	Question string `json:"question"`
}

// chatResponse is the POST /chat reply.
type chatResponse struct {
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Extractive bool              `json:"extractive"`
	Sources    []domain.Citation `json:"sources"`
}

// conversationResponse is one history entry.
type conversationResponse struct {
	ID         string            `json:"id"`
	Question   string            `json:"question"`
	Answer     string            `json:"answer"`
	Extractive bool              `json:"extractive"`
	Sources    []domain.Citation `json:"sources"`
	CreatedAt  time.Time         `json:"created_at"`
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": s.cfg.Environment,
	})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Redacted())
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid request body"})
			return
		}
	}

	source := req.Source
	if source == "" {
		source = s.cfg.SourceDir
	}

	report, err := s.ingestor.Ingest(c.Request.Context(), source)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "invalid request body"})
		return
	}

	answer, err := s.agent.Chat(c.Request.Context(), req.Question)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Question:   answer.Question,
		Answer:     answer.Text,
		Extractive: answer.Extractive,
		Sources:    answer.Sources,
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	convs, err := s.agent.History(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]conversationResponse, len(convs))
	for i, conv := range convs {
		sources := conv.Sources
		if sources == nil {
			sources = []domain.Citation{}
		}
		out[i] = conversationResponse{
			ID:         conv.ID,
			Question:   conv.Question,
			Answer:     conv.Answer,
			Extractive: conv.Extractive,
			Sources:    sources,
			CreatedAt:  conv.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyQuestion),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNoDocuments):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEmbedderMismatch):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Warn("request failed: %v", err)
	}

	c.JSON(status, errorResponse{Error: err.Error()})
}
