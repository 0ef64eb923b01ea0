package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"albion-trader/internal/albion"
	"albion-trader/internal/catalog"
	"albion-trader/internal/config"
	"albion-trader/internal/db"
	"albion-trader/internal/engine"
	"albion-trader/internal/logger"
)

// HealthChecker reports whether the upstream price service answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// Server is the HTTP API server that connects the scanner and the journal.
type Server struct {
	cfg     *config.Config
	scanner *engine.Scanner
	db      *db.DB
	health  HealthChecker

	// Upstream probe result, reused for one quote refresh interval.
	healthMu sync.Mutex
	healthOK bool
	healthAt time.Time
	now      func() time.Time
}

// NewServer creates a Server. database and health may be nil.
func NewServer(cfg *config.Config, scanner *engine.Scanner, database *db.DB, health HealthChecker) *Server {
	return &Server{
		cfg:     cfg,
		scanner: scanner,
		db:      database,
		health:  health,
		now:     time.Now,
	}
}

// upstreamOK returns the cached health probe, asking upstream again only once
// the quote refresh interval has passed since the last probe.
func (s *Server) upstreamOK(ctx context.Context) bool {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	now := s.now()
	if !s.healthAt.IsZero() && now.Sub(s.healthAt) <= s.cfg.QuoteRefreshInterval {
		return s.healthOK
	}
	s.healthOK = s.health.HealthCheck(ctx)
	s.healthAt = now
	return s.healthOK
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors())
	r.OPTIONS("/*path", func(c *gin.Context) {})

	g := r.Group("/api")
	g.GET("/status", s.handleStatus)
	g.GET("/categories", s.handleCategories)
	g.POST("/refresh/:category", s.handleRefresh)
	g.GET("/market/:category", s.handleMarket)
	g.GET("/indicator", s.handleIndicator)
	g.GET("/gold/ohlc", s.handleGoldOHLC)
	g.GET("/scan/history", s.handleGetHistory)
	g.GET("/scan/history/:id", s.handleGetHistoryByID)
	g.DELETE("/scan/history", s.handleClearHistory)
	return r
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("API", fmt.Sprintf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond)))
	}
}

func writeError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// errorKind names a cache-layer failure for clients that branch on it.
func errorKind(err error) string {
	switch {
	case errors.Is(err, albion.ErrFetchFailure):
		return "fetch_failure"
	case errors.Is(err, albion.ErrEmptyHistory):
		return "empty_history"
	case errors.Is(err, catalog.ErrMalformedIdentifier):
		return "malformed_identifier"
	case errors.Is(err, engine.ErrMalformedTimestamp):
		return "malformed_timestamp"
	}
	return "internal"
}

type categoryStatus struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	FetchedAt  time.Time `json:"fetched_at"`
	AgeSeconds float64   `json:"age_seconds"`
	Due        bool      `json:"due"`
}

func (s *Server) handleStatus(c *gin.Context) {
	ages := s.scanner.Quotes.Ages()
	var cats []categoryStatus
	for _, cat := range s.scanner.Catalog.Categories() {
		st := categoryStatus{
			Key:       cat.Key,
			Title:     cat.Title,
			FetchedAt: s.scanner.Quotes.Peek(cat.Key).FetchedAt,
			Due:       s.scanner.Quotes.Due(cat.Key),
		}
		if age, ok := ages[cat.Key]; ok {
			st.AgeSeconds = age.Seconds()
		}
		cats = append(cats, st)
	}

	result := gin.H{
		"categories":       cats,
		"refresh_interval": s.cfg.QuoteRefreshInterval.Seconds(),
		"history_cached":   s.scanner.History.Len(),
		"gold_fetched_at":  s.scanner.Gold.Peek(catalog.GoldKey).FetchedAt,
		"journal":          s.db != nil,
	}
	if s.health != nil {
		result["upstream_ok"] = s.upstreamOK(c.Request.Context())
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.scanner.Catalog.Categories())
}

func (s *Server) handleRefresh(c *gin.Context) {
	view, err := s.scanner.Scan(c.Request.Context(), c.Param("category"))
	if err != nil {
		s.writeScanError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleMarket(c *gin.Context) {
	view, err := s.scanner.View(c.Param("category"))
	if err != nil {
		s.writeScanError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) writeScanError(c *gin.Context, err error) {
	if errors.Is(err, engine.ErrUnknownCategory) {
		writeError(c, http.StatusNotFound, err.Error())
		return
	}
	writeError(c, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleIndicator(c *gin.Context) {
	itemID := strings.TrimSpace(c.Query("item"))
	if _, err := catalog.ParseItemID(itemID); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	loc, ok := catalog.ParseLocation(c.Query("location"))
	if !ok {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("unknown location %q", c.Query("location")))
		return
	}
	price, err := strconv.ParseInt(c.Query("price"), 10, 64)
	if err != nil || price < 0 {
		writeError(c, http.StatusBadRequest, "invalid price")
		return
	}

	result := gin.H{"item": itemID, "location": loc, "price": price, "text": ""}
	ind, err := s.scanner.Indicator(c.Request.Context(), itemID, loc, price)
	if err != nil {
		result["error_kind"] = errorKind(err)
		result["error"] = err.Error()
		c.JSON(http.StatusOK, result)
		return
	}
	result["text"] = ind.String()
	result["indicator"] = ind
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGoldOHLC(c *gin.Context) {
	view, err := s.scanner.GoldOHLC(c.Request.Context())
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, engine.ErrEmptyHistory) {
			code = http.StatusUnprocessableEntity
		}
		body := gin.H{"error": err.Error(), "error_kind": errorKind(err)}
		if view != nil && view.Warning != "" {
			body["warning"] = view.Warning
		}
		c.AbortWithStatusJSON(code, body)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleGetHistory(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, []db.ScanRecord{})
		return
	}
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = l
	}
	c.JSON(http.StatusOK, s.db.GetHistory(limit))
}

func (s *Server) handleGetHistoryByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid id")
		return
	}
	if s.db == nil {
		writeError(c, http.StatusNotFound, "not found")
		return
	}
	record := s.db.GetHistoryByID(id)
	if record == nil {
		writeError(c, http.StatusNotFound, "not found")
		return
	}
	recs := s.db.GetRecommendations(id)
	if recs == nil {
		recs = []db.RecommendationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"scan": record, "recommendations": recs})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"deleted": 0})
		return
	}
	n, err := s.db.ClearHistory()
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("API", fmt.Sprintf("Cleared %d journaled scans", n))
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
