package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kpiotrowski/flashforge/internal/common"
	"github.com/kpiotrowski/flashforge/internal/httpapi/handlers"
	"github.com/kpiotrowski/flashforge/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger(), middleware.Recovery(), middleware.RequestID())
	r.Use(cors.Default())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/users", h.Register)
	r.POST("/login", h.Login)

	authed := r.Group("/", middleware.AuthRequired(h.Cfg.JWTSecret))
	{
		authed.GET("/me", h.Me)

		authed.POST("/generate-flashcards", h.GenerateFlashcards)
		authed.POST("/generate-flashcards/async", h.GenerateFlashcardsAsync)
		authed.GET("/generation-jobs/:id", h.GetGenerationJob)

		authed.GET("/flashcards", h.ListFlashcards)
		authed.POST("/flashcards", h.CreateFlashcard)
		authed.PUT("/flashcards/:id", h.UpdateFlashcard)
		authed.PATCH("/flashcards/:id/collection", h.AssignCollection)
		authed.DELETE("/flashcards/:id", h.DeleteFlashcard)

		authed.GET("/collections", h.ListCollections)
		authed.POST("/collections", h.CreateCollection)
		authed.GET("/collections/:id", h.GetCollection)
		authed.PATCH("/collections/:id", h.UpdateCollection)
		authed.DELETE("/collections/:id", h.DeleteCollection)
	}

	return r
}
