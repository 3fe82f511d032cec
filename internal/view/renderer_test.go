package view

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deppfellow/contactform/internal/config"
	"github.com/deppfellow/contactform/internal/model"
	"github.com/rs/zerolog"
)

func newTestRenderer(t *testing.T, cfg config.ViewsConfig) *Renderer {
	t.Helper()

	logger := zerolog.Nop()
	r, err := New(cfg, &logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })

	return r
}

func TestEmbeddedViews(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	if !r.Ready() {
		t.Fatal("expected renderer to be ready")
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"error", "result"}) {
		t.Errorf("Names() = %v", got)
	}
	if err := r.Check(); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestRenderResultEscapesAndKeepsWhitespace(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	ctx := model.ResultContext(model.FormSubmission{
		Name:    "<b>Jo</b>",
		Email:   "jo@x.com",
		Message: "Hello ",
	})

	var buf bytes.Buffer
	if err := r.Execute(&buf, "result", ctx); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<b>Jo</b>") {
		t.Error("expected the name to be escaped")
	}
	if !strings.Contains(out, "&lt;b&gt;Jo&lt;/b&gt;") {
		t.Errorf("escaped name missing from output:\n%s", out)
	}
	if !strings.Contains(out, "<pre>Hello </pre>") {
		t.Errorf("expected the message verbatim, got:\n%s", out)
	}
	if !strings.Contains(out, `<html lang="en">`) {
		t.Errorf("expected the default language attribute, got:\n%s", out)
	}
}

func TestTemplateHelpers(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	var buf bytes.Buffer
	if err := r.Execute(&buf, "result", model.RenderContext{"name": "Jo"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(buf.String(), "<dd>-</dd>") {
		t.Errorf("expected the default helper to fill the email, got:\n%s", buf.String())
	}
}

func TestRenderError(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	var buf bytes.Buffer
	if err := r.Execute(&buf, "error", model.ErrorContext("all fields are required")); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(buf.String(), "all fields are required") {
		t.Errorf("message missing:\n%s", buf.String())
	}
}

func TestErrorViewLinksBackToTheForm(t *testing.T) {
	tests := map[string]string{
		"":                            `href="/"`,
		"/":                           `href="/"`,
		"https://example.com/contact": `href="https://example.com/contact"`,
	}

	for formURL, want := range tests {
		r := newTestRenderer(t, config.ViewsConfig{FormURL: formURL})

		var buf bytes.Buffer
		if err := r.Execute(&buf, "error", model.ErrorContext("all fields are required")); err != nil {
			t.Fatal(err)
		}

		out := buf.String()
		if strings.Contains(out, "javascript:") {
			t.Errorf("error view must not link to a script URL:\n%s", out)
		}
		if !strings.Contains(out, want) {
			t.Errorf("form url %q: expected %s in:\n%s", formURL, want, out)
		}
	}
}

func TestRenderOutcomeUsesItsLanguage(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	outcome := model.Outcome{
		View:    model.ViewError,
		Context: model.ErrorContext("Все поля должны быть заполнены"),
		Lang:    "ru",
	}

	var buf bytes.Buffer
	if err := r.Execute(&buf, string(outcome.View), outcome); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `<html lang="ru">`) {
		t.Errorf("expected the page language to follow the outcome:\n%s", out)
	}
	if !strings.Contains(out, "Все поля должны быть заполнены") {
		t.Errorf("message missing:\n%s", out)
	}
}

func TestRenderRejectsUnsupportedData(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	if err := r.Execute(&bytes.Buffer{}, "error", map[string]int{"error": 1}); err == nil {
		t.Fatal("expected an error for unsupported view data")
	}
}

func TestRenderUnknownView(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	err := r.Execute(&bytes.Buffer{}, "missing", nil)
	if !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected ErrUnknownView, got %v", err)
	}
}

func TestMinifiedOutputKeepsPreContent(t *testing.T) {
	plain := newTestRenderer(t, config.ViewsConfig{})
	minified := newTestRenderer(t, config.ViewsConfig{Minify: true})

	ctx := model.ResultContext(model.FormSubmission{
		Name:    "Jo",
		Email:   "jo@x.com",
		Message: "line one\n    line two ",
	})

	var a, b bytes.Buffer
	if err := plain.Execute(&a, "result", ctx); err != nil {
		t.Fatal(err)
	}
	if err := minified.Execute(&b, "result", ctx); err != nil {
		t.Fatal(err)
	}

	if b.Len() >= a.Len() {
		t.Errorf("expected minified output to be smaller: %d >= %d", b.Len(), a.Len())
	}
	if !strings.Contains(b.String(), "line one\n    line two ") {
		t.Errorf("pre content changed by minifier:\n%s", b.String())
	}
}

func writeViews(t *testing.T, dir, resultBody string) {
	t.Helper()

	files := map[string]string{
		"layout.html": `{{ define "layout" }}[{{ template "content" . }}]{{ end }}`,
		"error.html":  `{{ define "content" }}E:{{ .Context.error }}{{ end }}`,
		"result.html": `{{ define "content" }}` + resultBody + `{{ end }}`,
	}

	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestViewsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeViews(t, dir, `R:{{ .Context.name | upper }}`)

	r := newTestRenderer(t, config.ViewsConfig{Dir: dir})

	var buf bytes.Buffer
	if err := r.Execute(&buf, "result", model.RenderContext{"name": "jo"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[R:JO]" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestNewFailsOnMissingView(t *testing.T) {
	dir := t.TempDir()
	writeViews(t, dir, "R")
	if err := os.Remove(filepath.Join(dir, "error.html")); err != nil {
		t.Fatal(err)
	}

	logger := zerolog.Nop()
	if _, err := New(config.ViewsConfig{Dir: dir}, &logger); err == nil {
		t.Fatal("expected an error for a missing view file")
	}
}

func TestReloadKeepsPreviousViewsOnError(t *testing.T) {
	dir := t.TempDir()
	writeViews(t, dir, "v1")

	r := newTestRenderer(t, config.ViewsConfig{Dir: dir})

	writeViews(t, dir, "{{ .broken")
	if err := r.Reload(); err == nil {
		t.Fatal("expected a parse error")
	}

	var buf bytes.Buffer
	if err := r.Execute(&buf, "result", nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[v1]" {
		t.Errorf("expected previous template, got %q", buf.String())
	}
}

func TestWatchReloadsChangedViews(t *testing.T) {
	dir := t.TempDir()
	writeViews(t, dir, "v1")

	r := newTestRenderer(t, config.ViewsConfig{Dir: dir, Watch: true})

	writeViews(t, dir, "v2")

	deadline := time.Now().Add(5 * time.Second)
	for {
		var buf bytes.Buffer
		if err := r.Execute(&buf, "result", nil); err != nil {
			t.Fatal(err)
		}
		if buf.String() == "[v2]" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("views not reloaded, still rendering %q", buf.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestConcurrentRenderAndReload(t *testing.T) {
	r := newTestRenderer(t, config.ViewsConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := r.Check(); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := r.Reload(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestNilRendererIsNotReady(t *testing.T) {
	var r *Renderer
	if r.Ready() {
		t.Error("nil renderer must not be ready")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil renderer = %v", err)
	}
}
