package main

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/lattice-tmpl/lattice"
	"github.com/lattice-tmpl/lattice/include"
	"github.com/lattice-tmpl/lattice/value"
)

type serveCmd struct {
	Dir   string `arg:"" help:"Directory of templates to serve." type:"existingdir"`
	Addr  string `help:"Listen address." default:":8080"`
	Watch bool   `help:"Invalidate cached template reads on filesystem changes."`
}

func (s *serveCmd) Run(app *appContext) error {
	srv := &server{
		dir:    s.Dir,
		cap:    value.NewStdBackend(),
		logger: app.logger,
	}
	if s.Watch {
		loader, err := include.NewWatchingLoader([]string{s.Dir})
		if err != nil {
			return ioErr("watching %s: %v", s.Dir, err)
		}
		defer loader.Close()
		srv.loader = loader
	}

	router := chi.NewRouter()
	router.Get("/{name}", srv.handleRender)

	app.logger.Info("serving templates", "dir", s.Dir, "addr", s.Addr, "watch", s.Watch)
	if err := http.ListenAndServe(s.Addr, router); err != nil {
		return ioErr("listening on %s: %v", s.Addr, err)
	}
	return nil
}

// server renders templates found under dir in response to GET /{name},
// building the render root from the request's JSON body (if any) merged
// with its query parameters.
type server struct {
	dir    string
	cap    value.Capability
	logger *slog.Logger
	loader *include.WatchingLoader
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path := filepath.Join(s.dir, name)

	src, ok := "", false
	if s.loader != nil {
		src, ok = s.loader.Get(path)
	}
	if !ok {
		raw, err := os.ReadFile(path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		src = string(raw)
		if s.loader != nil {
			s.loader.Put(path, src)
		}
	}

	root, err := s.buildRoot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer s.cap.Free(root)

	tmpl, err := lattice.Parse(name, src, lattice.Options{SearchPath: []string{s.dir}})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := tmpl.RenderToFile(s.cap, root, w); err != nil {
		s.logger.Error("rendering", "template", name, "error", err)
	}
}

// buildRoot decodes the request body as JSON, if present, then overlays
// query parameters as string keys — a convenience for smoke-testing
// templates from a browser address bar without a JSON body.
func (s *server) buildRoot(r *http.Request) (value.Handle, error) {
	var root value.Handle
	if r.ContentLength > 0 {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		root, err = s.cap.Parse(string(body))
		if err != nil {
			return nil, err
		}
	} else {
		root = s.cap.NewObject()
	}

	if s.cap.Type(root) == value.KindObject {
		for key, vals := range r.URL.Query() {
			if len(vals) > 0 {
				s.cap.SetKey(root, key, s.cap.NewString(vals[0]))
			}
		}
	}
	return root, nil
}
