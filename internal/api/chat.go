package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantrychef/backend/internal/middleware"
	"github.com/pageza/pantrychef/backend/internal/service"
)

// ChatHandler serves POST /chat.
type ChatHandler struct {
	chatService service.IChatService
	defaultTopK int
}

// NewChatHandler uses defaultTopK when a request omits top_k.
func NewChatHandler(chatService service.IChatService, defaultTopK int) *ChatHandler {
	return &ChatHandler{chatService: chatService, defaultTopK: defaultTopK}
}

func (h *ChatHandler) RegisterRoutes(router gin.IRouter, mw ...gin.HandlerFunc) {
	router.POST("/chat", route(mw, h.Chat)...)
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	k := h.defaultTopK
	if req.TopK != nil {
		k = *req.TopK
	}

	resp, err := h.chatService.Chat(c.Request.Context(), req.Message, k)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
