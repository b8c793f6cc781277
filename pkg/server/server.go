// Package server wires the diff computation core into an HTTP service:
// upload an (old, new) file pair, then serve the computed unified diff,
// JSON diff, semantic diff, or raw file contents back out. Adapted from
// the teacher's pkg/http package; chi routing and middleware kept
// as-is, handlers rewritten around pkg/diffkit instead of the
// teacher's single-algorithm diff.Diff.
package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/grenlabs/diffkit/pkg/db"
	"github.com/grenlabs/diffkit/pkg/storage"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	PublicURL string
	Storage   storage.Storage
	DB        *db.DB
	Output    io.Writer
}

// Router builds the chi router: upload, serve diff (raw or JSON),
// serve semantic diff, serve raw file contents.
func (s *Server) Router() chi.Router {
	if s.Output == nil {
		s.Output = os.Stdout
	}
	rt := chi.NewRouter()
	rt.Use(
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger: log.New(s.Output, "", log.LstdFlags),
		}),
		middleware.Recoverer,
		middleware.Timeout(time.Second*60),
	)
	rt.Get("/", s.index)
	rt.Post("/", s.e(s.upload))
	rt.Get("/{id}.json", s.e(s.serveSemantic))
	rt.Get("/{id}", s.e(s.serveDiff))
	rt.Get("/{id}/red", s.serveFile(0))
	rt.Get("/{id}/green", s.serveFile(1))
	return rt
}

const (
	ctHeader = "Content-Type"
	ctPlain  = "text/plain; charset=utf-8"
	ctJSON   = "application/json; charset=utf-8"
)

var errUsage = errors.New("")

var reBrowser = regexp.MustCompile(`(?i)(?:chrome|firefox|safari|gecko)/`)

func isBrowser(r *http.Request) bool {
	return reBrowser.MatchString(r.UserAgent())
}

// wantsJSON decides the response format: an explicit ?format=json or
// ?format=text wins, otherwise browsers get text (they can't do much
// with a raw JSON response) and everyone else (curl, scripts) gets
// text too, unless they explicitly ask for JSON via the Accept header.
func wantsJSON(r *http.Request) bool {
	if f := r.URL.Query().Get("format"); f != "" {
		return f == "json"
	}
	if isBrowser(r) {
		return false
	}
	accept := r.Header.Get("Accept")
	return accept == "application/json" || accept == ctJSON
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(ctHeader, ctPlain)
	w.Write(s.usageString())
}

func (s *Server) usageString() []byte {
	return []byte("usage: curl -F red=@before.txt -F green=@after.txt " + s.PublicURL + "\n")
}

// e adapts an error-returning handler into an http.HandlerFunc, logging
// unexpected errors and translating errUsage into a 400 usage message
// (mirrors the teacher's Server.e).
func (s *Server) e(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err != nil {
			if errors.Is(err, errUsage) {
				w.WriteHeader(400)
				w.Write(s.usageString())
				return
			}
			log.Printf("request error: %v\n%s", err, smallStacktrace())
			w.WriteHeader(500)
			w.Write([]byte("500 internal server error\n"))
		}
	}
}
