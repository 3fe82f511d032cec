package view

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/sprig/v3"
	"github.com/deppfellow/contactform/internal/config"
	"github.com/deppfellow/contactform/internal/model"
	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

// ErrUnknownView is returned when a view name has no template.
var ErrUnknownView = errors.New("unknown view")

const htmlMediaType = "text/html"

// Renderer renders views for Echo.
//
// Render may run concurrently with a reload triggered by the watcher.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]*template.Template

	fsys     fs.FS
	dir      string
	formURL  string
	minifier *minify.M
	logger   *zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

var _ echo.Renderer = (*Renderer)(nil)

// New parses the views and, when configured, starts watching the directory
// they were read from.
func New(cfg config.ViewsConfig, logger *zerolog.Logger) (*Renderer, error) {
	r := &Renderer{
		fsys:    embeddedTemplates(),
		dir:     cfg.Dir,
		formURL: cfg.FormURL,
		logger:  logger,
	}

	if cfg.Dir != "" {
		r.fsys = os.DirFS(cfg.Dir)
	}

	if cfg.Minify {
		r.minifier = minify.New()
		r.minifier.Add(htmlMediaType, &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepWhitespace:   true,
		})
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}

	if cfg.Watch && cfg.Dir != "" {
		if err := r.watch(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func parseView(fsys fs.FS, v model.View) (*template.Template, error) {
	tmpl, err := template.New(string(v)).
		Option("missingkey=zero").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(fsys, LayoutFile, fileName(v))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse view %s", v)
	}

	if tmpl.Lookup("layout") == nil {
		return nil, errors.Errorf("view %s: %s does not define \"layout\"", v, LayoutFile)
	}

	return tmpl, nil
}

// Reload parses every view again. On failure the previous templates stay
// in use.
func (r *Renderer) Reload() error {
	templates := make(map[string]*template.Template, len(Views))

	for _, v := range Views {
		tmpl, err := parseView(r.fsys, v)
		if err != nil {
			return err
		}
		templates[string(v)] = tmpl
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()

	return nil
}

// page builds the template data for data, which must be a model.Outcome, a
// model.RenderContext or nil.
func (r *Renderer) page(data interface{}) (Page, error) {
	p := Page{
		Lang:    DefaultLang,
		FormURL: r.formURL,
	}

	switch d := data.(type) {
	case model.Outcome:
		p.Context = d.Context
		if d.Lang != "" {
			p.Lang = d.Lang
		}
	case model.RenderContext:
		p.Context = d
	case nil:
	default:
		return p, errors.Errorf("unsupported view data %T", data)
	}

	if p.Context == nil {
		p.Context = model.RenderContext{}
	}
	if p.FormURL == "" {
		p.FormURL = "/"
	}

	return p, nil
}

// Execute writes the named view rendered with data to w.
func (r *Renderer) Execute(w io.Writer, name string, data interface{}) error {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return errors.Wrapf(ErrUnknownView, "view %q", name)
	}

	p, err := r.page(data)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", p); err != nil {
		return errors.Wrapf(err, "failed to execute view %s", name)
	}

	if r.minifier == nil {
		_, err := body.WriteTo(w)
		return err
	}

	if err := r.minifier.Minify(htmlMediaType, w, &body); err != nil {
		return errors.Wrapf(err, "failed to minify view %s", name)
	}

	return nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.Execute(w, name, data)
}

// Names returns the loaded view names in sorted order.
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Ready reports whether every required view is loaded.
func (r *Renderer) Ready() bool {
	if r == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range Views {
		if _, ok := r.templates[string(v)]; !ok {
			return false
		}
	}

	return true
}

// Check renders every view with its PreviewData and discards the output.
func (r *Renderer) Check() error {
	for _, v := range Views {
		if err := r.Execute(io.Discard, string(v), PreviewData[v]); err != nil {
			return err
		}
	}

	return nil
}

func (r *Renderer) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create template watcher")
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "failed to watch %s", r.dir)
	}

	r.watcher = watcher
	r.done = make(chan struct{})

	go r.watchLoop()

	return nil
}

func (r *Renderer) watchLoop() {
	defer close(r.done)

	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}

			if !strings.HasSuffix(event.Name, ".html") ||
				!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := r.Reload(); err != nil {
				r.logger.Error().Err(err).Str("file", filepath.Base(event.Name)).Msg("template reload failed, keeping previous views")
				continue
			}

			r.logger.Info().Str("file", filepath.Base(event.Name)).Msg("templates reloaded")

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn().Err(err).Msg("template watcher error")
		}
	}
}

// Close stops the watcher, if any.
func (r *Renderer) Close() error {
	if r == nil || r.watcher == nil {
		return nil
	}

	err := r.watcher.Close()
	<-r.done

	return err
}
