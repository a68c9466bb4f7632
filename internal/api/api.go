// Package api exposes the pantry, recipe and chat services over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/pantrychef/backend/internal/apperr"
	"github.com/pageza/pantrychef/backend/internal/middleware"
)

// Handlers groups every route handler the server mounts.
type Handlers struct {
	Ingredients *IngredientHandler
	Recipes     *RecipeHandler
	Chat        *ChatHandler
	Health      *HealthHandler
}

// RouteOptions holds optional middleware. Nil entries are skipped.
type RouteOptions struct {
	// WriteGuard protects routes that change the pantry or the corpus.
	WriteGuard gin.HandlerFunc
	// ChatLimiter throttles POST /chat.
	ChatLimiter gin.HandlerFunc
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router gin.IRouter, h Handlers, opts RouteOptions) {
	writes := chain(opts.WriteGuard)

	if h.Health != nil {
		router.GET("/health", h.Health.Check)
	}
	if h.Ingredients != nil {
		h.Ingredients.RegisterRoutes(router, writes...)
	}
	if h.Recipes != nil {
		h.Recipes.RegisterRoutes(router, writes...)
	}
	if h.Chat != nil {
		h.Chat.RegisterRoutes(router, chain(opts.ChatLimiter)...)
	}
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func route(mw []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, handler)
}

// bindJSON decodes the body into dst, answering 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.RespondError(c, apperr.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

// pathID parses the :id parameter, answering 400 when it is not a UUID.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondError(c, apperr.Validation("invalid id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}
