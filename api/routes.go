package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the preview endpoints under /api.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/template/default", s.defaultTemplate)
		api.GET("/entries", s.listEntries)
		api.GET("/backgrounds", s.listBackgrounds)
		api.POST("/render", s.render)
	}
}

// Engine returns a gin engine with recovery, logging and the preview routes.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s.RegisterRoutes(r)
	return r
}
