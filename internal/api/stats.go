package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	if err := s.store.Ping(c.Request.Context()); err != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"llm_connected": s.classifier.CheckConnection(c.Request.Context()),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.GetStats(c.Request.Context())
	if err != nil {
		s.serverError(c, "failed to query stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.store.ListCategories(c.Request.Context())
	if err != nil {
		s.serverError(c, "failed to list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) handleCategorySummary(c *gin.Context) {
	summaries, err := s.store.CategorySummaries(c.Request.Context())
	if err != nil {
		s.serverError(c, "failed to query category summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": summaries})
}
