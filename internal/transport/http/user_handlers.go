package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avoronkov/peerchat-server/internal/store"
)

// UserHandlers provides HTTP handlers for the user directory and the
// persisted message log.
type UserHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// MessageResponse represents a persisted message in API responses.
type MessageResponse struct {
	ID      string `json:"id"`
	ChatID  string `json:"chatId"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	TS      int64  `json:"ts"`
}

// ListUsers lists all registered users.
// GET /api/users
func (h *UserHandlers) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}

	c.JSON(http.StatusOK, response)
}

// GetMessages returns the conversation between the caller and a peer, both
// directions, oldest first.
// GET /api/messages/:peer
func (h *UserHandlers) GetMessages(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		h.log.Error().Msg("identity not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	peer := c.Param("peer")
	if peer == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "peer is required"})
		return
	}

	messages, err := h.store.ListConversation(c.Request.Context(), identity, peer, 0)
	if err != nil {
		h.log.Error().Err(err).Str("peer", peer).Msg("failed to list conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			ID:      strconv.FormatInt(msg.ID, 10),
			ChatID:  msg.ChatID,
			Sender:  msg.Sender,
			Content: msg.Content,
			TS:      msg.CreatedAt.Unix(),
		})
	}

	c.JSON(http.StatusOK, response)
}
