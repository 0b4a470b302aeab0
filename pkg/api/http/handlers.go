package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionListResponse represents the session list
type SessionListResponse struct {
	Sessions []*ports.SessionRecord `json:"sessions"`
	Total    int                    `json:"total"`
}

// handleHealth reports healthy while the session is open
func (s *Server) handleHealth(c *gin.Context) {
	state := ports.SessionStateConnecting
	if s.state != nil {
		state = s.state.CurrentState()
	}

	status := http.StatusOK
	health := "healthy"
	if state != ports.SessionStateOpen {
		status = http.StatusServiceUnavailable
		health = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":    health,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": gin.H{
			"session": string(state),
		},
	})
}

// handleListSessions lists stored session records
func (s *Server) handleListSessions(c *gin.Context) {
	records, err := s.sessions.List(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: records,
		Total:    len(records),
	})
}

// handleGetSession returns one session record
func (s *Server) handleGetSession(c *gin.Context) {
	record, err := s.sessions.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: ErrorDetail{
					Code:    "NOT_FOUND",
					Message: "Session not found",
				},
			})
			return
		}

		s.logger.Error("failed to load session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{
				Code:    "STORAGE_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, record)
}
