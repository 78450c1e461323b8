package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"support-finder/internal/assistant"
	"support-finder/internal/auth"
	"support-finder/internal/chat"
	"support-finder/internal/config"
	"support-finder/internal/db"
	"support-finder/internal/dialogue"
	"support-finder/internal/llm"
	"support-finder/internal/logger"
	"support-finder/internal/prioritize"
	"support-finder/internal/resource"
	"support-finder/internal/search"
)

// stubCompleter replays fixed tokens, then returns err.
type stubCompleter struct {
	tokens []string
	err    error
}

func (s *stubCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return strings.Join(s.tokens, ""), nil
}

func (s *stubCompleter) Stream(ctx context.Context, messages []llm.Message, onToken func(string) error) (string, error) {
	var sb strings.Builder
	for _, tok := range s.tokens {
		if err := onToken(tok); err != nil {
			return sb.String(), err
		}
		sb.WriteString(tok)
	}
	return sb.String(), s.err
}

func (s *stubCompleter) Ping(ctx context.Context) error {
	return s.err
}

type testEnv struct {
	cfg    *config.Config
	svc    *Services
	router *gin.Engine
	store  *resource.Store
	cats   map[string]resource.Category
}

func newTestEnv(t *testing.T, completer *stubCompleter, rdb *redis.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{}
	cfg.Server.JWTSecret = "test-secret"
	cfg.Server.TokenTTLHours = 1
	cfg.Chat.HistoryLimit = 50

	log := logger.NewTestLogger(t)
	store := resource.NewStore(gdb)
	ctx := testContext(t)
	require.NoError(t, store.EnsureCategories(ctx, resource.DefaultCategories))
	cats := map[string]resource.Category{}
	for _, c := range resource.DefaultCategories {
		found, err := store.GetCategoryBySlug(ctx, c.Slug)
		require.NoError(t, err)
		cats[c.Slug] = *found
	}

	cache := resource.NewCategoryCache(store, rdb, 0, log)
	chats := chat.NewStore(gdb)
	engine := assistant.NewEngine(chats, prioritize.NewFetcher(store, cache, log),
		dialogue.NewInferrer(dialogue.DefaultRules()), cfg.Chat.HistoryLimit, log)

	svc := &Services{
		DB:         gdb,
		Redis:      rdb,
		Resources:  store,
		Categories: cache,
		Chats:      chats,
		Searcher:   search.NewSearcher(store, log),
		Engine:     engine,
		Responder:  assistant.NewResponder(completer, chats, 4096, log),
		Sessions:   auth.NewSessions(rdb),
		Completion: completer,
		Log:        log,
	}
	return &testEnv{cfg: cfg, svc: svc, router: SetupRouter(cfg, svc), store: store, cats: cats}
}

func (e *testEnv) seed(t *testing.T, r resource.Resource, slugs ...string) resource.Resource {
	t.Helper()
	for _, s := range slugs {
		r.Categories = append(r.Categories, e.cats[s])
	}
	require.NoError(t, e.store.Create(testContext(t), &r))
	return r
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type createdChat struct {
	ID    uint   `json:"id"`
	Token string `json:"token"`
}

func (e *testEnv) createChat(t *testing.T) createdChat {
	t.Helper()
	w := e.do(t, http.MethodPost, "/chats", "", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out createdChat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotZero(t, out.ID)
	require.NotEmpty(t, out.Token)
	return out
}
