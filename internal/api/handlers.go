package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/dashboard"
	"github.com/IshaanNene/napwatch/internal/types"
)

func (s *Server) handleHome(c *gin.Context) {
	c.String(http.StatusOK, welcomeText)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleArticles(c *gin.Context) {
	records, err := s.reader.FindAll(c.Request.Context())
	if err != nil {
		s.logger.Error("read dataset failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read articles"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleSummary(c *gin.Context) {
	records, err := s.reader.FindAll(c.Request.Context())
	if err != nil {
		s.logger.Error("read dataset failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read articles"})
		return
	}
	c.JSON(http.StatusOK, dashboard.Summarize(records))
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", dashboard.Page())
}

// handleScrape runs a harvest synchronously. A request arriving during a
// run waits for that run and reports its result.
func (s *Server) handleScrape(c *gin.Context) {
	if !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "scrape requested too often, try again later"})
		return
	}

	result, shared, err := s.scheduler.Trigger(c.Request.Context(), types.TriggerManual)
	if err != nil {
		s.logger.Error("manual scrape failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scrape failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "Scraping completed successfully!",
		"run_id":  result.RunID,
		"records": result.Records,
		"shared":  shared,
	})
}
