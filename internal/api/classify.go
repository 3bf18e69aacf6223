package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallyfold/tallyfold/internal/model"
)

// classifyRequest is a single classification request body.
type classifyRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount"`
	RulesOnly   bool    `json:"rules_only"`
}

// classifyBatchRequest carries multiple transactions for
// classification in one call.
type classifyBatchRequest struct {
	Transactions []model.ClassifyInput `json:"transactions" binding:"required"`
	BatchSize    int                   `json:"batch_size"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	if req.RulesOnly {
		result := s.classifier.ClassifyRulesOnly(c.Request.Context(), req.Description, req.Amount)
		if result == nil {
			c.JSON(http.StatusOK, gin.H{"matched": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matched": true, "result": result})
		return
	}

	result := s.classifier.Classify(c.Request.Context(), req.Description, req.Amount)
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (s *Server) handleClassifyBatch(c *gin.Context) {
	var req classifyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transactions are required"})
		return
	}

	results := s.classifier.ClassifyBatch(c.Request.Context(), req.Transactions)
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) handleClassifyBatchLLM(c *gin.Context) {
	var req classifyBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transactions are required"})
		return
	}

	results := s.classifier.ClassifyBatchLLM(c.Request.Context(), req.Transactions, req.BatchSize)
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
