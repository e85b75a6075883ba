package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/data/repos/testutil"
	"github.com/yungbote/fieldlog-backend/internal/http/handlers"
	"github.com/yungbote/fieldlog-backend/internal/server"
	"github.com/yungbote/fieldlog-backend/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	jobSvc := services.NewJobService(log, repos.NewJobRepo(gdb, log))
	codexSvc := services.NewCodexService(log,
		repos.NewSummaryRepo(gdb, log),
		repos.NewAudioLogRepo(gdb, log),
		repos.NewPromptRepo(gdb, log),
	)

	return server.NewRouter(server.RouterConfig{
		Log:          log,
		JobHandler:   handlers.NewJobHandler(log, jobSvc),
		CodexHandler: handlers.NewCodexHandler(log, codexSvc),
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %s %s: %v; body=%s", method, path, err, w.Body.String())
	}
	return w.Code, env
}

func TestCreateAndFetchJob(t *testing.T) {
	router := newTestRouter(t)

	code, env := doJSON(t, router, "POST", "/api/jobs", map[string]any{
		"mode":         "SUMMARY_ONLY",
		"generationId": 1,
		"region":       "kanto",
		"pokemonIds":   []int{3, 1, 3},
	})
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("create failed: code=%d env=%+v", code, env)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil || created.ID == "" {
		t.Fatalf("create must return the job id: %v env=%+v", err, env)
	}

	code, env = doJSON(t, router, "GET", "/api/jobs/"+created.ID, nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("fetch failed: code=%d env=%+v", code, env)
	}
	var fetched struct {
		Status     string `json:"status"`
		Total      int    `json:"total"`
		PokemonIDs []int  `json:"pokemon_ids"`
	}
	if err := json.Unmarshal(env.Data, &fetched); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if fetched.Status != "queued" || fetched.Total != 2 {
		t.Fatalf("unexpected job record: %+v", fetched)
	}
	if len(fetched.PokemonIDs) != 2 || fetched.PokemonIDs[0] != 1 || fetched.PokemonIDs[1] != 3 {
		t.Fatalf("ids not normalized: %v", fetched.PokemonIDs)
	}
}

func TestCreateJobValidation(t *testing.T) {
	router := newTestRouter(t)

	code, env := doJSON(t, router, "POST", "/api/jobs", map[string]any{
		"mode":       "FULL",
		"pokemonIds": []int{},
	})
	if code != http.StatusBadRequest || env.Success || env.Error == "" {
		t.Fatalf("expected 400 with error message, got code=%d env=%+v", code, env)
	}
}

func TestGetMissingJobReturns404(t *testing.T) {
	router := newTestRouter(t)

	code, env := doJSON(t, router, "GET", "/api/jobs/"+uuid.NewString(), nil)
	if code != http.StatusNotFound || env.Success {
		t.Fatalf("expected 404 envelope, got code=%d env=%+v", code, env)
	}
}

func TestPauseQueuedJobConflicts(t *testing.T) {
	router := newTestRouter(t)

	_, env := doJSON(t, router, "POST", "/api/jobs", map[string]any{
		"mode":       "SUMMARY_ONLY",
		"pokemonIds": []int{1},
	})
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode job: %v", err)
	}

	// A queued job has never started, so pausing it is an illegal transition.
	code, env := doJSON(t, router, "POST", fmt.Sprintf("/api/jobs/%s/pause", created.ID), nil)
	if code != http.StatusConflict || env.Success {
		t.Fatalf("expected 409 envelope, got code=%d env=%+v", code, env)
	}
}

func TestRecoverStalledEndpoint(t *testing.T) {
	router := newTestRouter(t)

	code, env := doJSON(t, router, "POST", "/api/jobs/maintenance/recover-stalled", map[string]any{
		"stalledThresholdMs": 60000,
	})
	if code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 envelope, got code=%d env=%+v", code, env)
	}

	// Empty body falls back to the default threshold.
	code, env = doJSON(t, router, "POST", "/api/jobs/maintenance/recover-stalled", nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("default threshold failed: code=%d env=%+v", code, env)
	}

	code, env = doJSON(t, router, "POST", "/api/jobs/maintenance/recover-stalled", map[string]any{
		"stalledThresholdMs": 0,
	})
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("threshold of zero must be rejected, got code=%d env=%+v", code, env)
	}
}

func TestPromptRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	code, env := doJSON(t, router, "PUT", "/api/prompts/summary", map[string]any{
		"content": "custom template",
	})
	if code != http.StatusOK || !env.Success {
		t.Fatalf("set prompt failed: code=%d env=%+v", code, env)
	}

	code, env = doJSON(t, router, "GET", "/api/prompts/summary", nil)
	if code != http.StatusOK || !env.Success {
		t.Fatalf("get prompt failed: code=%d env=%+v", code, env)
	}

	code, env = doJSON(t, router, "PUT", "/api/prompts/haiku", map[string]any{"content": "x"})
	if code != http.StatusBadRequest || env.Success {
		t.Fatalf("unknown prompt type must 400, got code=%d env=%+v", code, env)
	}
}
