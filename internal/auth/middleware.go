package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"support-finder/internal/apperrors"
	"support-finder/internal/config"
	"support-finder/internal/resource"
)

const ChatIDKey = "chatId"

func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// Browsers cannot set headers on a WebSocket upgrade.
	return c.Query("token")
}

// ConversationMiddleware admits requests carrying a valid conversation token.
// When the route has an :id parameter it must name the token's conversation.
func ConversationMiddleware(cfg *config.Config, sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing conversation token"}})
			return
		}
		claims, err := ParseConversationToken(cfg.Server.JWTSecret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}
		ok, err := sessions.Valid(c.Request.Context(), claims.ChatID, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "Session store unavailable"}})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Conversation ended or token revoked"}})
			return
		}
		if raw, ok := c.Params.Get("id"); ok {
			id, err := resource.ParseID(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid conversation id", "code": apperrors.CodeOf(err)}})
				return
			}
			if id != claims.ChatID {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"message": "Token does not match conversation"}})
				return
			}
		}
		c.Set(ChatIDKey, claims.ChatID)
		c.Next()
	}
}

// ChatIDFrom returns the conversation bound by ConversationMiddleware.
func ChatIDFrom(c *gin.Context) uint {
	return c.GetUint(ChatIDKey)
}
