package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupRoutes(r *gin.Engine) {
	r.Use(metricsMiddleware())
	r.Use(corsMiddleware(cfg.AllowedOrigins))
	r.Use(rateLimitMiddleware(newIPLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/", apiRootHandler)

	auth := api.Group("/auth")
	auth.POST("/register", registerHandler)
	auth.POST("/login", loginHandler)
	auth.POST("/refresh", refreshHandler)
	auth.POST("/logout", requireAuth(), logoutHandler)

	articles := api.Group("/articles")
	articles.Use(requireAuth())
	articles.GET("", listArticlesHandler)
	articles.POST("", createArticleHandler)
	articles.GET("/:id", requireArticleOwner(), getArticleHandler)
	articles.PUT("/:id", requireArticleOwner(), updateArticleHandler)
	articles.DELETE("/:id", requireArticleOwner(), deleteArticleHandler)

	files := api.Group("/files")
	files.Use(requireAuth())
	files.GET("", listFilesHandler)
	files.POST("", uploadFileHandler)
	files.GET("/:id", requireFileOwner(), getFileHandler)
	files.PUT("/:id", requireFileOwner(), updateFileHandler)
	files.DELETE("/:id", requireFileOwner(), deleteFileHandler)

	users := api.Group("/users")
	users.Use(requireAuth())
	users.GET("/:id", requireSelf(), getUserHandler)
	users.PUT("/:id", requireSelf(), updateUserHandler)
	users.DELETE("/:id", requireSelf(), deleteUserHandler)
}
