package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/agent/repo"
	errx "github.com/aura-core/server/internal/core/error"
)

type fakeRunner struct {
	reply string
	err   error
	got   []model.ChatInput
}

func (f *fakeRunner) Invoke(_ context.Context, in model.ChatInput) (string, error) {
	f.got = append(f.got, in)
	return f.reply, f.err
}

type memProfiles struct {
	byID   map[string]*model.UserProfile
	getErr error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byID: map[string]*model.UserProfile{}}
}

func (m *memProfiles) Get(_ context.Context, userID string) (*model.UserProfile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.byID[userID]; ok {
		return p, nil
	}
	return &model.UserProfile{UserID: userID, PhotoURLs: []string{}}, nil
}

func (m *memProfiles) Put(_ context.Context, p *model.UserProfile) error {
	m.byID[p.UserID] = p
	return nil
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestRootAndHealth(t *testing.T) {
	h := NewServer(nil, Stores{Profiles: newMemProfiles()}).Router()

	rec, body := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "healthy", "service": "Aura AI", "version": "1.0.0"}, body)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	_, body = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, false, body["graph_compiled"])

	h = NewServer(&fakeRunner{}, Stores{Profiles: newMemProfiles()}).Router()
	_, body = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["graph_compiled"])
}

func TestChat_UsesGivenThread(t *testing.T) {
	runner := &fakeRunner{reply: "Where are you headed?"}
	h := NewServer(runner, Stores{Profiles: newMemProfiles()}).Router()

	rec, body := do(t, h, http.MethodPost, "/chat", `{"message":"I need a dress","user_id":"u1","thread_id":"t-9"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Where are you headed?", body["response"])
	assert.Equal(t, "t-9", body["thread_id"])
	assert.Equal(t, "u1", body["user_id"])
	require.Len(t, runner.got, 1)
	assert.Equal(t, model.ChatInput{ThreadID: "t-9", UserID: "u1", Message: "I need a dress"}, runner.got[0])
}

func TestChat_GeneratesThreadID(t *testing.T) {
	runner := &fakeRunner{reply: "ok"}
	h := NewServer(runner, Stores{Profiles: newMemProfiles()}).Router()

	_, body := do(t, h, http.MethodPost, "/chat", `{"message":"hi","user_id":"u1"}`)

	id, _ := body["thread_id"].(string)
	assert.Regexp(t, `^thread_[0-9a-f]{8}$`, id)
	require.Len(t, runner.got, 1)
	assert.Equal(t, id, runner.got[0].ThreadID)
}

func TestChat_InvalidBody(t *testing.T) {
	runner := &fakeRunner{}
	h := NewServer(runner, Stores{Profiles: newMemProfiles()}).Router()

	cases := map[string]string{
		"malformed":       `{"message":`,
		"missing message": `{"user_id":"u1"}`,
		"missing user":    `{"message":"hi"}`,
		"wrong type":      `{"message":3,"user_id":"u1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, out := do(t, h, http.MethodPost, "/chat", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, out["detail"], "invalid request")
		})
	}
	assert.Empty(t, runner.got)
}

func TestChat_GraphNotReady(t *testing.T) {
	h := NewServer(nil, Stores{Profiles: newMemProfiles()}).Router()

	rec, body := do(t, h, http.MethodPost, "/chat", `{"message":"hi","user_id":"u1"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errx.GraphUnavailableMessage, body["detail"])
}

func TestChat_GraphError(t *testing.T) {
	h := NewServer(&fakeRunner{err: errors.New("model timeout")}, Stores{Profiles: newMemProfiles()}).Router()

	rec, body := do(t, h, http.MethodPost, "/chat", `{"message":"hi","user_id":"u1","thread_id":"t1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error processing request: model timeout", body["detail"])
}

func TestProfilePhotos(t *testing.T) {
	profiles := newMemProfiles()
	h := NewServer(nil, Stores{Profiles: profiles}).Router()

	_, body := do(t, h, http.MethodGet, "/users/u1/profile", "")
	assert.Equal(t, "u1", body["user_id"])
	assert.Empty(t, body["photo_urls"])

	rec, body := do(t, h, http.MethodPut, "/users/u1/photos", `{"photo_urls":["https://cdn.example.com/me.jpg"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"https://cdn.example.com/me.jpg"}, body["photo_urls"])

	_, body = do(t, h, http.MethodGet, "/users/u1/profile", "")
	assert.Equal(t, []any{"https://cdn.example.com/me.jpg"}, body["photo_urls"])
	assert.Equal(t, []string{"https://cdn.example.com/me.jpg"}, profiles.byID["u1"].PhotoURLs)
}

func TestProfilePhotos_Rejected(t *testing.T) {
	h := NewServer(nil, Stores{Profiles: newMemProfiles()}).Router()

	for _, body := range []string{`{}`, `{"photo_urls":["ftp://x/y.png"]}`, `{"photo_urls":["not a url"]}`} {
		rec, _ := do(t, h, http.MethodPut, "/users/u1/photos", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestProfile_RedisFailure(t *testing.T) {
	profiles := newMemProfiles()
	profiles.getErr = errx.WrapRedis(errors.New("connection refused"))
	h := NewServer(nil, Stores{Profiles: profiles}).Router()

	rec, _ := do(t, h, http.MethodGet, "/users/u1/profile", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	profiles.getErr = errx.WrapRedis(redis.Nil)
	rec, _ = do(t, h, http.MethodGet, "/users/u1/profile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecovererReturnsJSON(t *testing.T) {
	h := jsonRecoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec, body := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errx.SystemErrorMessage, body["detail"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewServer(nil, Stores{Profiles: newMemProfiles()}).Router()

	rec, _ := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewThreadID(t *testing.T) {
	a, b := NewThreadID(), NewThreadID()
	assert.Regexp(t, `^thread_[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}

func newRedisStores(t *testing.T) Stores {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return Stores{
		Profiles:      repo.NewRedisProfileRepository(rdb),
		Conversations: repo.NewRedisConversationRepository(rdb, time.Hour),
		Sessions:      repo.NewRedisSessionRepository(rdb, time.Hour),
	}
}

func TestThreadLifecycle(t *testing.T) {
	stores := newRedisStores(t)
	ctx := context.Background()
	require.NoError(t, stores.Conversations.AddMessages(ctx, "t1",
		schema.UserMessage("I need a dress"),
		schema.AssistantMessage("Where are you headed?", nil),
	))
	require.NoError(t, stores.Sessions.Save(ctx, &model.Session{
		ThreadID: "t1",
		UserID:   "u1",
		Query:    &model.Query{Destination: "Paris", Category: "dress", Occasion: "wedding"},
	}))
	h := NewServer(nil, stores).Router()

	rec, body := do(t, h, http.MethodGet, "/threads/t1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["message_count"])
	session, _ := body["session"].(map[string]any)
	require.NotNil(t, session)
	assert.Equal(t, "u1", session["user_id"])
	assert.Equal(t, "Paris", session["chat_query"].(map[string]any)["destination"])

	rec, body = do(t, h, http.MethodDelete, "/threads/t1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", body["thread_id"])
	assert.Equal(t, float64(2), body["deleted_messages"])

	n, err := stores.Conversations.GetMessageCount(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)
	loaded, err := stores.Sessions.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, loaded.Query)
	assert.Empty(t, loaded.UserID)

	_, body = do(t, h, http.MethodGet, "/threads/t1", "")
	assert.Equal(t, float64(0), body["message_count"])
	assert.Nil(t, body["session"].(map[string]any)["chat_query"])
}

func TestDeleteUnknownThread(t *testing.T) {
	h := NewServer(nil, newRedisStores(t)).Router()

	rec, body := do(t, h, http.MethodDelete, "/threads/nope", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["deleted_messages"])
}
