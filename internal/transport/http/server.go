package http

import (
	"github.com/gin-gonic/gin"

	"avidoc/internal/bootstrap"
	"avidoc/internal/transport/http/handler"
	"avidoc/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/info", healthHandler.Info)

	authHandler := handler.NewAuthHandler(app.AuthService)
	documentHandler := handler.NewDocumentHandler(app.IngestService, app.DocRepo, app.ChunkRepo)
	ragHandler := handler.NewRAGHandler(app.RAGService)
	graphHandler := handler.NewGraphHandler(app.GraphService)
	validationHandler := handler.NewValidationHandler(app.ValidationService)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret, app.Config.Auth.Required)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret, true), authHandler.Me)

	// Top-level alias for the documented upload path.
	v1.POST("/upload", authRequired, documentHandler.Upload)

	docs := v1.Group("/documents")
	docs.Use(authRequired)
	docs.POST("/upload", documentHandler.Upload)
	docs.GET("", documentHandler.List)
	docs.GET("/:doc_id", documentHandler.Get)
	docs.DELETE("/:doc_id", documentHandler.Delete)

	v1.POST("/search", authRequired, ragHandler.Search)
	v1.POST("/ask", authRequired, ragHandler.Ask)
	v1.POST("/validate", authRequired, validationHandler.Validate)

	graphGroup := v1.Group("/graph")
	graphGroup.Use(authRequired)
	graphGroup.GET("", graphHandler.FullGraph)
	graphGroup.GET("/:doc_id", graphHandler.DocumentGraph)

	links := v1.Group("/links")
	links.Use(authRequired)
	links.GET("", graphHandler.ListLinks)
	links.POST("", graphHandler.CreateLink)
	links.DELETE("", graphHandler.DeleteLink)

	return router
}
