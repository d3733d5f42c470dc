package app

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/skillbridge/internal/config"
	"github.com/hitoshi/skillbridge/internal/repository/memory"
)

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	setTestEnv(t)
	t.Setenv("JWT_SECRET", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("expected error for missing env vars, got nil")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error = %q, want to mention JWT_SECRET", err.Error())
	}
}

func TestRun_MigrateRequiresPostgres(t *testing.T) {
	setTestEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err == nil {
		t.Fatal("expected error for migrate with memory driver")
	}
}

func TestRun_SeedRequiresCredentials(t *testing.T) {
	setTestEnv(t)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SEED_ADMIN_EMAIL", "")
	t.Setenv("SEED_ADMIN_PASSWORD", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"seed"})
	if err == nil || !strings.Contains(err.Error(), "SEED_ADMIN_EMAIL") {
		t.Fatalf("err = %v, want SEED_ADMIN_EMAIL error", err)
	}
}

func TestRunHealthcheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	if err := runHealthcheck(healthy.URL + "/health"); err != nil {
		t.Errorf("healthy: unexpected error %v", err)
	}
	if err := runHealthcheck(unhealthy.URL + "/health"); err == nil {
		t.Error("unhealthy: expected error")
	}
}

// インメモリストアで組み立てたサーバーがヘルスチェックとメトリクスを提供することを検証する。
func TestBuildServer_MemoryStorage(t *testing.T) {
	cfg := &config.Config{
		StorageDriver:     config.StorageDriverMemory,
		JWTSecret:         "test-secret",
		TokenTTL:          time.Hour,
		BcryptCost:        bcrypt.MinCost,
		RateLimitGeneral:  120,
		RateLimitApply:    10,
		DefaultPageSize:   10,
		CORSAllowedOrigin: "http://localhost:3000",
	}
	st, err := openStorage(cfg)
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	defer st.close()

	srv := buildServer(cfg, st, prometheus.NewRegistry())
	defer srv.rateLimiter.Stop()

	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/health status = %d, want %d", w.Code, http.StatusOK)
	}

	body := `{"name":"Emp","email":"emp@example.com","password":"secret1","role":"employer"}`
	w = httptest.NewRecorder()
	srv.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", w.Code)
	}
	out, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(out), `skillbridge_http_status_total{status_code="201"}`) {
		t.Errorf("metrics output missing http status counter:\n%s", out)
	}
}

func TestSeedAdmin(t *testing.T) {
	store := memory.NewStore()
	ctx := t.Context()

	created, err := seedAdmin(ctx, store.Users(), " Admin@Example.com ", "secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}

	u, err := store.Users().FindByEmail(ctx, "admin@example.com")
	if err != nil || u == nil {
		t.Fatalf("FindByEmail = %v, %v", u, err)
	}
	if u.Role != "admin" {
		t.Errorf("Role = %q, want admin", u.Role)
	}
	if ok, _ := u.VerifyPassword("secret1"); !ok {
		t.Error("password does not verify")
	}

	created, err = seedAdmin(ctx, store.Users(), "admin@example.com", "secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("second seedAdmin: %v", err)
	}
	if created {
		t.Error("second seed must be a no-op")
	}
}

func TestSeedAdmin_Validation(t *testing.T) {
	store := memory.NewStore()

	if _, err := seedAdmin(t.Context(), store.Users(), "not-an-email", "secret1", bcrypt.MinCost); err == nil {
		t.Error("expected error for invalid email")
	}
	if _, err := seedAdmin(t.Context(), store.Users(), "admin@example.com", "123", bcrypt.MinCost); err == nil {
		t.Error("expected error for short password")
	}
}
