package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrychef/backend/internal/middleware"
	"github.com/pageza/pantrychef/backend/internal/service"
)

// IngredientHandler serves the pantry routes.
type IngredientHandler struct {
	ingredientService service.IIngredientService
}

func NewIngredientHandler(ingredientService service.IIngredientService) *IngredientHandler {
	return &IngredientHandler{ingredientService: ingredientService}
}

func (h *IngredientHandler) RegisterRoutes(router gin.IRouter, writes ...gin.HandlerFunc) {
	router.POST("/add-ingredient", route(writes, h.CreateIngredient)...)
	router.PUT("/update-ingredient/:id", route(writes, h.UpdateIngredient)...)
	router.GET("/ingredients", h.ListIngredients)
}

func (h *IngredientHandler) CreateIngredient(c *gin.Context) {
	var req IngredientRequest
	if !bindJSON(c, &req) {
		return
	}

	ingredient, err := h.ingredientService.CreateIngredient(c.Request.Context(), req.toService())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{
		Message:    "Ingredient added successfully!",
		Ingredient: ingredient,
	})
}

func (h *IngredientHandler) UpdateIngredient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req IngredientUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	ingredient, err := h.ingredientService.UpdateIngredient(c.Request.Context(), id, req.toService())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Message:    "Ingredient updated successfully!",
		Ingredient: ingredient,
	})
}

func (h *IngredientHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.ingredientService.ListIngredients(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}
