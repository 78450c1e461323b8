package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"support-finder/internal/apperrors"
	"support-finder/internal/auth"
	"support-finder/internal/config"
)

// POST /chats starts an anonymous conversation and hands back its token.
func CreateChatHandler(cfg *config.Config, svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Title string `json:"title"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, apperrors.InvalidInput("invalid request body", err.Error()))
				return
			}
		}

		ctx := c.Request.Context()
		chatInst, err := svc.Chats.CreateChat(ctx, req.Title)
		if err != nil {
			respondError(c, err)
			return
		}
		ttl := cfg.Server.TokenTTL()
		token, err := auth.GenerateConversationToken(cfg.Server.JWTSecret, chatInst.ID, ttl)
		if err != nil {
			respondError(c, err)
			return
		}
		if err := svc.Sessions.Set(ctx, chatInst.ID, token, ttl); err != nil {
			svc.Log.Error("storing conversation session failed", map[string]interface{}{"chat_id": chatInst.ID, "error": err})
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "Session store unavailable"}})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":        chatInst.ID,
			"title":     chatInst.DisplayTitle(),
			"token":     token,
			"expiresAt": time.Now().Add(ttl),
			"createdAt": chatInst.CreatedAt,
		})
	}
}

// GET /chats/:id/messages?limit=
func ListMessagesHandler(cfg *config.Config, svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := auth.ChatIDFrom(c)
		ctx := c.Request.Context()

		limit := cfg.Chat.HistoryLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondError(c, apperrors.InvalidInput("limit must be a non-negative integer", raw))
				return
			}
			limit = n
		}

		chatInst, err := svc.Chats.GetChat(ctx, chatID)
		if err != nil {
			respondError(c, err)
			return
		}
		msgs, err := svc.Chats.GetMessages(ctx, chatID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":       chatInst.ID,
			"title":    chatInst.DisplayTitle(),
			"messages": msgs,
		})
	}
}

// POST /chats/:id/messages runs one turn and waits for the whole reply.
func SendMessageHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.InvalidInput("invalid request body", err.Error()))
			return
		}

		chatID := auth.ChatIDFrom(c)
		ctx := c.Request.Context()
		if _, err := svc.Chats.GetChat(ctx, chatID); err != nil {
			respondError(c, err)
			return
		}

		turn, err := svc.Engine.NextTurn(ctx, chatID, req.Content)
		if err != nil {
			respondError(c, err)
			return
		}
		reply, err := svc.Responder.Respond(ctx, turn, nil)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"action":    turn.Action,
			"state":     turn.State,
			"resources": turn.Resources,
			"reply":     reply,
		})
	}
}

// DELETE /chats/:id ends the conversation and revokes its token.
func DeleteChatHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := auth.ChatIDFrom(c)
		ctx := c.Request.Context()
		if err := svc.Chats.DeleteChat(ctx, chatID); err != nil {
			respondError(c, err)
			return
		}
		if err := svc.Sessions.Revoke(ctx, chatID); err != nil {
			svc.Log.Warn("revoking conversation session failed", map[string]interface{}{"chat_id": chatID, "error": err})
		}
		c.Status(http.StatusNoContent)
	}
}
