package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer-web/internal/analysis"
	"resume-analyzer-web/internal/services/health"
	"resume-analyzer-web/internal/shared/config"
	"resume-analyzer-web/internal/shared/server/middleware"
	"resume-analyzer-web/internal/shared/storage/object/memory"
	"resume-analyzer-web/internal/view"
	"resume-analyzer-web/internal/web"
)

type okAnalyzer struct{}

func (okAnalyzer) Analyze(ctx context.Context, up analysis.Upload) (*analysis.Result, error) {
	return &analysis.Result{Name: "Ada"}, nil
}

func testRouter(t *testing.T, cfg config.Config) (*gin.Engine, *web.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := middleware.NewRateLimiter(func() time.Time { return now })
	registry := web.NewRegistry(view.NewFactory(view.Deps{Analyzer: okAnalyzer{}}), web.RegistryOptions{
		TTL:         time.Hour,
		MaxSessions: cfg.MaxSessions,
		OnRelease:   limiter.Forget,
	})
	t.Cleanup(registry.Close)
	return NewRouter(RouterDeps{
		Config:  cfg,
		Web:     web.NewHandler(registry, store, cfg.MaxUploadBytes),
		Health:  health.NewService(registry.Len),
		Limiter: limiter,
	}), registry
}

func postResume(r *gin.Engine, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("resume", "cv.pdf")
	_, _ = part.Write([]byte("%PDF-1.4"))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := testRouter(t, config.Defaults())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"sessions":`) {
		t.Fatalf("healthz body missing sessions: %s", resp.Body.String())
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatalf("healthz must not issue a session cookie")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "analysis_started_total") {
		t.Fatalf("metrics body missing counters: %s", resp.Body.String())
	}
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	r, _ := testRouter(t, config.Defaults())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"code":"not_found"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestAnalyzeIsRateLimitedPerSession(t *testing.T) {
	cfg := config.Defaults()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	r, registry := testRouter(t, cfg)

	first := postResume(r, nil)
	if first.Code != http.StatusAccepted {
		t.Fatalf("first analyze expected 202, got %d: %s", first.Code, first.Body.String())
	}
	cookies := first.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("expected session cookie")
	}
	v, err := registry.Get(cookies[0].Value)
	if err != nil {
		t.Fatalf("session lookup: %v", err)
	}
	v.Upload().Wait()

	second := postResume(r, cookies[0])
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second analyze expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestCookielessRequestsCannotBypassLimits(t *testing.T) {
	cfg := config.Defaults()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	cfg.SessionRateLimitRPS = 0.001
	cfg.SessionRateLimitBurst = 1
	r, registry := testRouter(t, cfg)

	accepted, limited := 0, 0
	for i := 0; i < 50; i++ {
		switch code := postResume(r, nil).Code; code {
		case http.StatusAccepted:
			accepted++
		case http.StatusTooManyRequests:
			limited++
		default:
			t.Fatalf("request %d: unexpected status %d", i+1, code)
		}
	}
	if accepted != 1 || limited != 49 {
		t.Fatalf("expected 1 accepted and 49 limited, got %d and %d", accepted, limited)
	}
	if registry.Len() > 1 {
		t.Fatalf("expected at most one session, got %d", registry.Len())
	}
}

func TestSessionCapReturnsServiceUnavailable(t *testing.T) {
	cfg := config.Defaults()
	cfg.MaxSessions = 1
	r, registry := testRouter(t, cfg)

	get := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
		req.RemoteAddr = addr
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	if code := get("10.0.0.1:1234").Code; code != http.StatusOK {
		t.Fatalf("first session expected 200, got %d", code)
	}
	full := get("10.0.0.2:1234")
	if full.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 once the cap is reached, got %d", full.Code)
	}
	if !strings.Contains(full.Body.String(), `"code":"too_many_sessions"`) {
		t.Fatalf("unexpected body: %s", full.Body.String())
	}
	if full.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if registry.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", registry.Len())
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9090": ":9090", ":7070": ":7070"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
