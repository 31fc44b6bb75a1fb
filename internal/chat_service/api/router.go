package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns a Gin engine instance.
func SetupRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.Default()
	r.Use(CORSMiddleware(allowedOrigins))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/chat", h.Chat)
		apiGroup.POST("/load-documents", h.LoadDocuments)
		apiGroup.GET("/search-by-tag", h.SearchByTag)
		apiGroup.DELETE("/delete-by-tag", h.DeleteByTag)
		apiGroup.DELETE("/collection", h.ClearCollection)
		apiGroup.GET("/status", h.Status)
	}

	return r
}
