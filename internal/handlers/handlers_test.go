package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedev-tw/npc-engine/internal/engine"
	"github.com/gamedev-tw/npc-engine/internal/memory"
	"github.com/gamedev-tw/npc-engine/internal/services"
	"github.com/gamedev-tw/npc-engine/internal/storage"
	"github.com/gamedev-tw/npc-engine/pkg/chat"
	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

type testEnv struct {
	logger   *slog.Logger
	backend  *storage.MockStorage
	registry *memory.Registry
	llm      *services.MockLLMAPI
	engine   *engine.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	backend := storage.NewMockStorage()
	registry := memory.NewRegistry(backend, memory.Limits{
		MaxLocations:    15,
		MaxLongTerm:     50,
		VisitThreshold:  1.5,
		RevisitInterval: 5 * time.Minute,
	}, logger)
	llm := services.NewMockLLMAPI()
	explorer := engine.NewExplorer(engine.ExploreConfig{
		MinSearchDistance: 2.0,
		MaxSearchDistance: 15.0,
		BoundaryBuffer:    0.5,
	}, rand.New(rand.NewSource(1)), logger)
	eng := engine.New(engine.Config{
		ModelName:       "test-model",
		NumCtx:          4096,
		BoundaryBuffer:  0.5,
		VisitThreshold:  1.5,
		RevisitInterval: 5 * time.Minute,
	}, llm, registry, explorer, logger)
	return &testEnv{logger: logger, backend: backend, registry: registry, llm: llm, engine: eng}
}

func movementBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(npc.MovementRequest{
		NPCID:           "npc_yui",
		CurrentPosition: npc.Position{X: 2, Y: 5},
		Boundary:        npc.SceneBoundary{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestMovementHandler(t *testing.T) {
	env := newTestEnv(t)
	env.llm.ChatFunc = func(context.Context, string, []chat.Message, *chat.Options) (*chat.Response, error) {
		return &chat.Response{Content: "reasoning: kitchen time\nchosen_action: \"Making tea\"\ntarget_coordinates: \"x=6, y=6\"\nresulting_emotion_tag: content"}, nil
	}
	handler := NewMovementHandler(env.engine, env.logger)

	t.Run("successful decision", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/npc/think", movementBody(t))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var decision npc.MovementDecision
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
		assert.Equal(t, "npc_yui", decision.NPCID)
		assert.Equal(t, "Making tea", decision.ChosenAction)
		assert.Equal(t, 6.0, decision.Target.X)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/npc/think", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing npc_id", func(t *testing.T) {
		body, _ := json.Marshal(npc.MovementRequest{
			Boundary: npc.SceneBoundary{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10},
		})
		req := httptest.NewRequest(http.MethodPost, "/v1/npc/think", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/npc/think", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAdminHandler_MemoryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAdminHandler(env.registry, env.logger)
	ctx := context.Background()

	require.NoError(t, env.registry.ForNPC("npc_yui").RecordVisit(ctx, 3, 4, time.Now()))
	require.NoError(t, env.registry.ForNPC("npc_yui").Save(ctx, false))

	t.Run("get memory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/npc/npc_yui/memory", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var record npc.MemoryRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
		assert.Equal(t, "npc_yui", record.NPCID)
		assert.Len(t, record.LocationHistory, 1)
	})

	t.Run("clear memory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/v1/admin/npc/npc_yui/memory", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		loaded, err := env.backend.LoadMemory(ctx, "npc_yui")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("unknown npc is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/npc/npc_ghost/memory", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/npc//memory", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/v1/admin/npc/npc_yui/memory", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAdminHandler_SaveAll(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAdminHandler(env.registry, env.logger)
	require.NoError(t, env.registry.ForNPC("npc_a").RecordVisit(context.Background(), 1, 1, time.Now()))

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/memories/save", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	ids, err := env.backend.ListNPCs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"npc_a"}, ids)

	t.Run("save failures reported", func(t *testing.T) {
		env.backend.SaveErr = assert.AnError
		require.NoError(t, env.registry.ForNPC("npc_b").RecordVisit(context.Background(), 2, 2, time.Now()))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/admin/memories/save", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTranslateHandler(t *testing.T) {
	env := newTestEnv(t)
	env.llm.ChatFunc = func(context.Context, string, []chat.Message, *chat.Options) (*chat.Response, error) {
		return &chat.Response{Content: "Hola"}, nil
	}
	translator := services.NewTranslator(env.llm, "test-model", env.logger)
	handler := NewTranslateHandler(translator, env.logger)

	t.Run("success", func(t *testing.T) {
		body, _ := json.Marshal(TranslateRequest{Text: "Hello", TargetLanguage: "es"})
		req := httptest.NewRequest(http.MethodPost, "/v1/translate", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp TranslateResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Hola", resp.TranslatedText)
	})

	t.Run("missing fields", func(t *testing.T) {
		body, _ := json.Marshal(TranslateRequest{Text: "Hello"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/translate", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("llm failure maps to bad gateway", func(t *testing.T) {
		env.llm.ChatFunc = func(context.Context, string, []chat.Message, *chat.Options) (*chat.Response, error) {
			return nil, assert.AnError
		}
		body, _ := json.Marshal(TranslateRequest{Text: "Hello", TargetLanguage: "es"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/translate", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHealthHandler(env.backend, env.llm, env.logger)

	t.Run("healthy", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "healthy", resp.Components["storage"])
		assert.Equal(t, "healthy", resp.Components["llm"])
	})

	t.Run("degraded when storage is down", func(t *testing.T) {
		env.backend.PingErr = assert.AnError
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy", resp.Components["storage"])
	})
}
