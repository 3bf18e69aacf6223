package api

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/transactions", s.handleListTransactions)
		api.POST("/transactions", s.handleSaveTransactions)
		api.GET("/transactions/search", s.handleSearchTransactions)
		api.GET("/transactions/date-range", s.handleTransactionsByDateRange)
		api.GET("/transactions/export", s.handleExportTransactions)
		api.GET("/transactions/category/:category", s.handleTransactionsByCategory)
		api.GET("/transactions/type/:type", s.handleTransactionsByType)
		api.GET("/transactions/statement/:statement", s.handleTransactionsByStatement)

		api.GET("/stats", s.handleStats)
		api.GET("/categories", s.handleListCategories)
		api.GET("/categories/summary", s.handleCategorySummary)

		api.POST("/classify", s.handleClassify)
		api.POST("/classify/batch", s.handleClassifyBatch)
		api.POST("/classify/batch-llm", s.handleClassifyBatchLLM)
	}

	s.router.GET("/ws/chat", s.handleChat)
}
