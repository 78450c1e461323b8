package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-finder/internal/apperrors"
	"support-finder/internal/chat"
	"support-finder/internal/dialogue"
)

type turnBody struct {
	Action dialogue.Action `json:"action"`
	Reply  struct {
		Content  string        `json:"content"`
		Fallback bool          `json:"fallback"`
		Message  *chat.Message `json:"message"`
	} `json:"reply"`
}

func messagesPath(id uint) string {
	return "/chats/" + strconv.FormatUint(uint64(id), 10) + "/messages"
}

func TestCreateChatHandler(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{}, nil)

	w := env.do(t, http.MethodPost, "/chats", "", map[string]string{"title": "Need food"})
	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Need food", body["title"])
	assert.NotEmpty(t, body["token"])

	w = env.do(t, http.MethodPost, "/chats", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "New conversation", body["title"])
}

func TestSendMessageHandler_Flow(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{tokens: []string{"Can I ", "share some options?"}}, nil)
	c := env.createChat(t)

	w := env.do(t, http.MethodPost, messagesPath(c.ID), c.Token, map[string]string{"content": "I'm hungry"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var turn turnBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turn))
	assert.Equal(t, dialogue.ActionAskPermission, turn.Action)
	assert.Equal(t, "Can I share some options?", turn.Reply.Content)
	assert.False(t, turn.Reply.Fallback)
	require.NotNil(t, turn.Reply.Message)
	assert.Equal(t, string(dialogue.ActionAskPermission), turn.Reply.Message.Action)

	w = env.do(t, http.MethodPost, messagesPath(c.ID), c.Token, map[string]string{"content": "yes please"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turn))
	assert.Equal(t, dialogue.ActionAskLocation, turn.Action)

	w = env.do(t, http.MethodGet, messagesPath(c.ID), c.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var transcript struct {
		Messages []chat.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transcript))
	require.Len(t, transcript.Messages, 4)
	assert.Equal(t, chat.RoleUser, transcript.Messages[0].Role)
	assert.Equal(t, "I'm hungry", transcript.Messages[0].Content)
	assert.Equal(t, chat.RoleAssistant, transcript.Messages[3].Role)

	w = env.do(t, http.MethodGet, messagesPath(c.ID)+"?limit=2", c.Token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transcript))
	assert.Len(t, transcript.Messages, 2)
}

func TestSendMessageHandler_UpstreamFailureServesFallback(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{err: apperrors.Upstream("completion", errors.New("connection refused"))}, nil)
	c := env.createChat(t)

	w := env.do(t, http.MethodPost, messagesPath(c.ID), c.Token, map[string]string{"content": "I'm hungry"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var turn turnBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &turn))
	assert.True(t, turn.Reply.Fallback)
	assert.NotEmpty(t, turn.Reply.Content)
	require.NotNil(t, turn.Reply.Message)
	assert.True(t, turn.Reply.Message.Fallback)
}

func TestSendMessageHandler_Rejections(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{tokens: []string{"ok"}}, nil)
	c := env.createChat(t)
	other := env.createChat(t)

	w := env.do(t, http.MethodPost, messagesPath(c.ID), "", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, messagesPath(c.ID), other.Token, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, messagesPath(c.ID), c.Token, map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, messagesPath(c.ID)+"?limit=-1", c.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/chats/abc/messages", c.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteChatHandler_RevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	env := newTestEnv(t, &stubCompleter{tokens: []string{"ok"}}, rdb)
	c := env.createChat(t)

	w := env.do(t, http.MethodGet, messagesPath(c.ID), c.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/chats/"+strconv.FormatUint(uint64(c.ID), 10), c.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, messagesPath(c.ID), c.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteChatHandler_WithoutSessionStore(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{tokens: []string{"ok"}}, nil)
	c := env.createChat(t)

	w := env.do(t, http.MethodDelete, "/chats/"+strconv.FormatUint(uint64(c.ID), 10), c.Token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The token still verifies, but the conversation is gone.
	w = env.do(t, http.MethodGet, messagesPath(c.ID), c.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
