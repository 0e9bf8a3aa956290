package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/news"
	"github.com/ppiankov/newsverdict/internal/pipeline"
)

const maxHistoryLimit = 200

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

type checkURLRequest struct {
	URL string `json:"url"`
}

type checkTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) apiError(c *gin.Context, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code, Timestamp: time.Now().UTC()})
}

// batchStatus maps a batch outcome to an HTTP status
func batchStatus(b model.BatchResult) int {
	if b.Outcome == model.OutcomeUpstreamFetchError {
		return http.StatusBadGateway
	}
	return http.StatusOK
}

// resultStatus maps a single check outcome to an HTTP status
func resultStatus(r model.CheckResult) int {
	switch r.Outcome {
	case model.OutcomeExtractionFailed:
		return http.StatusUnprocessableEntity
	case model.OutcomeClassificationError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func (s *Server) apiHeadlines(c *gin.Context) {
	batch, err := s.checker.CheckHeadlines(c.Request.Context())
	if err != nil {
		s.apiError(c, http.StatusInternalServerError, "CHECK_ERROR", err)
		return
	}
	c.JSON(batchStatus(batch), batch)
}

func (s *Server) apiSearch(c *gin.Context) {
	batch, err := s.checker.CheckKeyword(c.Request.Context(), c.Query("q"))
	if errors.Is(err, news.ErrEmptyQuery) {
		s.apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
		return
	}
	if err != nil {
		s.apiError(c, http.StatusInternalServerError, "CHECK_ERROR", err)
		return
	}
	c.JSON(batchStatus(batch), batch)
}

func (s *Server) apiCheckURL(c *gin.Context) {
	var req checkURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.apiError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	result, err := s.checker.CheckURL(c.Request.Context(), req.URL)
	if errors.Is(err, pipeline.ErrEmptyURL) {
		s.apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
		return
	}
	s.respondResult(c, result, err)
}

func (s *Server) apiCheckText(c *gin.Context) {
	var req checkTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.apiError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", pipeline.ErrEmptyText)
		return
	}

	result, err := s.checker.CheckText(c.Request.Context(), req.Text)
	s.respondResult(c, result, err)
}

// respondResult writes a check result; a classification error keeps its body
func (s *Server) respondResult(c *gin.Context, result model.CheckResult, err error) {
	var cerr *pipeline.ClassificationError
	switch {
	case errors.As(err, &cerr):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, result)
	case err != nil:
		s.apiError(c, http.StatusInternalServerError, "CHECK_ERROR", err)
	default:
		c.JSON(resultStatus(result), result)
	}
}

func (s *Server) apiHistory(c *gin.Context) {
	if s.history == nil {
		s.apiError(c, http.StatusNotFound, "HISTORY_DISABLED", errors.New("history is disabled"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.apiError(c, http.StatusBadRequest, "VALIDATION_ERROR", errors.New("limit must be a non-negative integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.history.Recent(limit)
	if err != nil {
		s.log.Error("read history failed", logging.Err(err))
		s.apiError(c, http.StatusInternalServerError, "HISTORY_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (s *Server) apiStats(c *gin.Context) {
	if s.history == nil {
		s.apiError(c, http.StatusNotFound, "HISTORY_DISABLED", errors.New("history is disabled"))
		return
	}
	stats, err := s.history.Stats()
	if err != nil {
		s.apiError(c, http.StatusInternalServerError, "HISTORY_ERROR", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
