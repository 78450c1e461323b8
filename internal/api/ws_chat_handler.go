package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"support-finder/internal/auth"
	"support-finder/internal/dialogue"
	"support-finder/internal/resource"
)

// Client to server: {"prompt": "..."} starts a turn, {"event": "stop"} cancels it.
type WSChatPrompt struct {
	Event  string `json:"event,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// Server to client events, discriminated by Event.
const (
	wsEventTurn    = "turn"
	wsEventToken   = "token"
	wsEventEnd     = "end"
	wsEventStopped = "stopped"
	wsEventError   = "error"
)

type WSTurnEvent struct {
	Event     string              `json:"event"`
	Action    dialogue.Action     `json:"action"`
	State     dialogue.State      `json:"state"`
	Resources []resource.Resource `json:"resources"`
}

type WSChatToken struct {
	Event string `json:"event"`
	Token string `json:"token"`
	Index int    `json:"index"`
}

type WSEndEvent struct {
	Event     string `json:"event"`
	Content   string `json:"content"`
	Fallback  bool   `json:"fallback"`
	MessageID uint   `json:"message_id"`
}

type WSErrorEvent struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket connection wrapper with mutex for thread-safe writes
type safeWSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *safeWSConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *safeWSConn) ReadMessage() (int, []byte, error) {
	return s.conn.ReadMessage()
}

func (s *safeWSConn) Close() error {
	return s.conn.Close()
}

func (s *safeWSConn) writeError(msg string) {
	_ = s.WriteJSON(WSErrorEvent{Event: wsEventError, Error: msg})
}

// GET /ws/chat?token=
func WSChatHandler(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := auth.ChatIDFrom(c)
		if _, err := svc.Chats.GetChat(c.Request.Context(), chatID); err != nil {
			respondError(c, err)
			return
		}

		rawConn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			svc.Log.Warn("websocket upgrade failed", map[string]interface{}{"chat_id": chatID, "error": err})
			return
		}
		conn := &safeWSConn{conn: rawConn}
		defer conn.Close()

		// connCtx ends when the client goes away; every turn derives from it.
		connCtx, disconnect := context.WithCancel(context.Background())
		defer disconnect()

		var current turnCanceller
		prompts := make(chan string, 1)
		go func() {
			defer close(prompts)
			defer disconnect()
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var req WSChatPrompt
				if err := json.Unmarshal(msg, &req); err != nil {
					conn.writeError("invalid JSON")
					continue
				}
				if req.Event == "stop" {
					current.cancel()
					continue
				}
				select {
				case prompts <- req.Prompt:
				default:
					conn.writeError("a reply is already in progress")
				}
			}
		}()

		log := svc.Log.WithFields(map[string]interface{}{"chat_id": chatID, "transport": "websocket"})
		for prompt := range prompts {
			turnCtx, cancel := context.WithCancel(connCtx)
			current.set(cancel)
			streamTurn(turnCtx, conn, svc, chatID, prompt, log)
			current.set(nil)
			cancel()
		}
	}
}
