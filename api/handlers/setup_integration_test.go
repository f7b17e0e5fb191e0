// api/handlers/setup_integration_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/datalens-backend/api"
	"github.com/Annany2002/datalens-backend/config"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/domain"
	"github.com/Annany2002/datalens-backend/internal/llm"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

const testJWTSecret = "test_secret_key_for_integration_tests_1234567890"

// fakeLLM answers translation prompts from the schema it is given and
// validation prompts with a fixed verdict.
type fakeLLM struct {
	validation string
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.HasPrefix(userPrompt, "Analyze") {
		if f.validation != "" {
			return f.validation, nil
		}
		return `{"isValid":true,"errors":[],"optimizations":[],"estimatedPerformance":"good"}`, nil
	}
	if strings.Contains(userPrompt, `"name": "users"`) && strings.Contains(userPrompt, "count all users") {
		return `{"sql":"SELECT COUNT(*) AS total FROM users","explanation":"Counts every row in users","confidence":0.95,"suggestions":[]}`, nil
	}
	return `{"sql":"SELECT 1","explanation":"Fallback","confidence":1.7}`, nil
}

type testEnv struct {
	server *httptest.Server
	store  storage.Store
	cfg    *config.Config
	llm    *fakeLLM
}

type envOption func(cfg *config.Config)

func withAuthRequired(cfg *config.Config) { cfg.AuthRequired = true }

func withSQLiteStore(cfg *config.Config) { cfg.StoreDriver = config.StoreDriverSQLite }

// setupTestServer creates a test server backed by a fresh store.
func setupTestServer(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir := t.TempDir()
	cfg := &config.Config{
		ServerPort:         "0",
		StoreDriver:        config.StoreDriverMemory,
		MetadataDbDir:      tempDir,
		MetadataDbFile:     "test_metadata.db",
		QueryTimeout:       5 * time.Second,
		SchemaCacheTTL:     time.Minute,
		CORSAllowedOrigins: []string{"*"},
		JWTSecret:          testJWTSecret,
		JWTExpiration:      5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var store storage.Store
	if cfg.StoreDriver == config.StoreDriverSQLite {
		sqliteStore, err := storage.NewSQLiteStore(cfg)
		require.NoError(t, err)
		store = sqliteStore
	} else {
		store = storage.NewMemoryStore()
	}

	fake := &fakeLLM{}
	dbAccess := dbaccess.NewService(cfg.QueryTimeout, cfg.SchemaCacheTTL)
	router := api.SetupRouter(api.Dependencies{
		Cfg:        cfg,
		Store:      store,
		DBAccess:   dbAccess,
		Translator: llm.NewTranslator(fake),
		Validator:  llm.NewValidator(fake),
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		dbAccess.CloseAllConnections()
		if err := store.Close(); err != nil {
			t.Logf("Warning: failed to close test store: %v", err)
		}
	})
	return &testEnv{server: server, store: store, cfg: cfg, llm: fake}
}

// do sends body as JSON (nil sends no body) and returns status and raw body.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = strings.NewReader(raw)
		} else {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(encoded)
		}
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, data
}

// doInto is do followed by decoding the body into out.
func (e *testEnv) doInto(t *testing.T, method, path string, body any, out any, headers ...string) int {
	t.Helper()
	status, data := e.do(t, method, path, body, headers...)
	require.NoError(t, json.Unmarshal(data, out), "body: %s", string(data))
	return status
}

// createSQLiteDatabase registers a fresh SQLite file and returns its record.
func (e *testEnv) createSQLiteDatabase(t *testing.T) domain.Database {
	t.Helper()
	var db domain.Database
	status := e.doInto(t, http.MethodPost, "/api/databases", map[string]any{
		"name":             "analytics.db",
		"type":             "sqlite",
		"connectionString": filepath.Join(t.TempDir(), "data", "analytics.db"),
	}, &db)
	require.Equal(t, http.StatusOK, status)
	return db
}
