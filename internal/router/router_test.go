package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/deppfellow/contactform/internal/config"
	"github.com/deppfellow/contactform/internal/errs"
	"github.com/deppfellow/contactform/internal/handler"
	"github.com/deppfellow/contactform/internal/server"
	"github.com/deppfellow/contactform/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestRouter(t *testing.T, configure func(cfg *config.Config)) *echo.Echo {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Primary.Env = "test"
	if configure != nil {
		configure(cfg)
	}

	logger := zerolog.Nop()
	s, err := server.New(cfg, &logger, nil)
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}

	services, err := service.NewServices(s)
	if err != nil {
		t.Fatalf("service.NewServices() error = %v", err)
	}

	return NewRouter(s, handler.NewHandlers(s, services))
}

func postForm(r *echo.Echo, values url.Values, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, ProcessPath, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for key, vals := range header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestProcessValidSubmission(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := postForm(r, url.Values{
		"name":    {"Jo"},
		"email":   {"jo@x.com"},
		"message": {"Hello "},
		"extra":   {"ignored"},
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}

	body := rec.Body.String()
	for _, want := range []string{"Thank you, Jo", "jo@x.com", "<pre>Hello </pre>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "ignored") {
		t.Error("unknown parameters must not reach the view")
	}
}

func TestProcessRejectedSubmissions(t *testing.T) {
	r := newTestRouter(t, nil)

	tests := map[string]url.Values{
		"whitespace name": {"name": {"   "}, "email": {"a@b.com"}, "message": {"hi"}},
		"absent email":    {"name": {"Jo"}, "message": {"hi"}},
		"no fields":       {},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			rec := postForm(r, values, nil)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			body := rec.Body.String()
			if !strings.Contains(body, "all fields are required") {
				t.Errorf("expected the error view, got:\n%s", body)
			}
			if strings.Contains(body, "a@b.com") || strings.Contains(body, "Thank you") {
				t.Errorf("submitted values leaked into the error view:\n%s", body)
			}
		})
	}
}

func TestProcessMultipartForm(t *testing.T) {
	r := newTestRouter(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range map[string]string{"name": "Jo", "email": "jo@x.com", "message": "hi"} {
		if err := w.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, ProcessPath, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Thank you, Jo") {
		t.Fatalf("expected the result view, got %d:\n%s", rec.Code, rec.Body.String())
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	r := newTestRouter(t, nil)
	values := url.Values{"name": {"Jo"}, "email": {"jo@x.com"}, "message": {"Hello"}}

	first := postForm(r, values, nil).Body.String()
	second := postForm(r, values, nil).Body.String()

	if first != second {
		t.Errorf("responses differ:\n%s\n---\n%s", first, second)
	}
}

func TestProcessNegotiatesLocale(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Form.NegotiateLocale = true
	})

	rec := postForm(r, url.Values{}, http.Header{"Accept-Language": {"ru-RU,ru;q=0.9"}})

	if !strings.Contains(rec.Body.String(), "Все поля должны быть заполнены") {
		t.Errorf("expected the Russian message, got:\n%s", rec.Body.String())
	}
}

func TestSecurityAndRequestIDHeaders(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := postForm(r, url.Values{}, http.Header{"X-Request-Id": {"req-123"}})

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected request ID to be echoed, got %q", got)
	}
	if got := rec.Header().Get(echo.HeaderContentSecurityPolicy); !strings.Contains(got, "default-src") {
		t.Errorf("missing content security policy, got %q", got)
	}
	if got := rec.Header().Get(echo.HeaderXContentTypeOptions); got != "nosniff" {
		t.Errorf("unexpected X-Content-Type-Options %q", got)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()

	var body errs.HTTPError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected a JSON error body, got %q: %v", rec.Body.String(), err)
	}

	return body
}

func TestFrameworkErrors(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Server.BodyLimit = "1K"
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if body := decodeError(t, rec); body.Code != "NOT_FOUND" || body.Message != "Route not found" {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ProcessPath, nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
		if body := decodeError(t, rec); body.Code != "METHOD_NOT_ALLOWED" {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		rec := postForm(r, url.Values{"message": {strings.Repeat("x", 4096)}}, nil)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, ProcessPath, strings.NewReader("name=%zz"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 0.001,
			Burst:             2,
			ExpiresIn:         60,
		}
	})

	values := url.Values{"name": {"Jo"}, "email": {"jo@x.com"}, "message": {"hi"}}

	for i := 0; i < 2; i++ {
		if rec := postForm(r, values, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := postForm(r, values, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != "TOO_MANY_REQUESTS" || !body.Override {
		t.Errorf("unexpected body %+v", body)
	}

	status := httptest.NewRecorder()
	r.ServeHTTP(status, httptest.NewRequest(http.MethodGet, "/status", nil))
	if status.Code != http.StatusOK {
		t.Errorf("status endpoint must not be rate limited, got %d", status.Code)
	}
}

func forwardedFor(ip string) http.Header {
	return http.Header{echo.HeaderXForwardedFor: {ip}}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 0.001,
			Burst:             1,
			ExpiresIn:         60,
		}
	})

	values := url.Values{"name": {"Jo"}, "email": {"jo@x.com"}, "message": {"hi"}}

	accepted := 0
	for i := 0; i < 20; i++ {
		rec := postForm(r, values, forwardedFor(fmt.Sprintf("198.51.100.%d", i+1)))
		switch rec.Code {
		case http.StatusOK:
			accepted++
		case http.StatusTooManyRequests:
		default:
			t.Fatalf("request %d: unexpected status %d", i+1, rec.Code)
		}
	}

	if accepted != 1 {
		t.Errorf("expected 1 accepted request, got %d", accepted)
	}
}

func TestRateLimitTrustsConfiguredProxies(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 0.001,
			Burst:             1,
			ExpiresIn:         60,
		}
		// httptest requests come from 192.0.2.1.
		cfg.Server.TrustedProxies = []string{"192.0.2.0/24"}
	})

	values := url.Values{"name": {"Jo"}, "email": {"jo@x.com"}, "message": {"hi"}}

	for i := 0; i < 5; i++ {
		rec := postForm(r, values, forwardedFor(fmt.Sprintf("198.51.100.%d", i+1)))
		if rec.Code != http.StatusOK {
			t.Fatalf("client %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	if rec := postForm(r, values, forwardedFor("198.51.100.1")); rec.Code != http.StatusTooManyRequests {
		t.Errorf("repeat client: expected 429, got %d", rec.Code)
	}
}

func TestErrorPageLanguageAndBackLink(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Form.NegotiateLocale = true
		cfg.Views.FormURL = "/contact"
	})

	body := postForm(r, url.Values{}, http.Header{"Accept-Language": {"ru"}}).Body.String()

	for _, want := range []string{`lang="ru"`, `href="/contact"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "javascript:") {
		t.Errorf("error page must not rely on inline script links:\n%s", body)
	}
}

func TestStatusEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
		Checks      map[string]struct {
			Status string   `json:"status"`
			Loaded []string `json:"loaded"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}

	if body.Status != "healthy" || body.Environment != "test" {
		t.Errorf("unexpected body %+v", body)
	}
	if views := body.Checks["views"]; views.Status != "healthy" || len(views.Loaded) != 2 {
		t.Errorf("unexpected views check %+v", views)
	}
}
