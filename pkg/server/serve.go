package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/grenlabs/diffkit/pkg/diffkit"
	"github.com/grenlabs/diffkit/pkg/semantic"
	"github.com/grenlabs/diffkit/pkg/unified"
)

// serveDiff computes the diff for a stored file pair on demand (the
// core is a pure function of its inputs; nothing is precomputed or
// cached) and serves it as raw unified-diff text or as JSON.
func (s *Server) serveDiff(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	files, oldName, newName, err := s.getFiles(r.Context(), id)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		w.WriteHeader(404)
		w.Write([]byte("not found"))
		return nil
	}

	opts := optionsFromQuery(r.URL.Query())
	result := diffkit.Diff(files[0].Content, files[1].Content, opts)

	if wantsJSON(r) {
		w.Header().Set(ctHeader, ctJSON)
		return json.NewEncoder(w).Encode(result)
	}

	text := unified.Serialize(unified.File{OldName: oldName, NewName: newName, Hunks: result.Hunks})
	w.Header().Set(ctHeader, ctPlain)
	w.Write([]byte(text))
	return nil
}

// serveSemantic is the `/{id}.json` endpoint: when both uploaded files
// parse as JSON, it exposes the structural differ's output instead of
// the line-based unified diff.
func (s *Server) serveSemantic(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	files, _, _, err := s.getFiles(r.Context(), id)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		w.WriteHeader(404)
		w.Write([]byte("not found"))
		return nil
	}

	var oldVal, newVal any
	if err := json.Unmarshal([]byte(files[0].Content), &oldVal); err != nil {
		w.WriteHeader(400)
		w.Write([]byte("red file is not valid JSON: " + err.Error() + "\n"))
		return nil
	}
	if err := json.Unmarshal([]byte(files[1].Content), &newVal); err != nil {
		w.WriteHeader(400)
		w.Write([]byte("green file is not valid JSON: " + err.Error() + "\n"))
		return nil
	}

	opts := semantic.DefaultOptions()
	if r.URL.Query().Has("ignoreArrayOrder") {
		opts.ArrayStrategy = semantic.OrderInsensitive
	} else if r.URL.Query().Has("detectMoves") {
		opts.ArrayStrategy = semantic.WithMoveDetection
	}

	result := diffkit.DiffJSON(oldVal, newVal, opts)
	w.Header().Set(ctHeader, ctJSON)
	return json.NewEncoder(w).Encode(result)
}

func (s *Server) serveFile(idx int) http.HandlerFunc {
	return s.e(func(w http.ResponseWriter, r *http.Request) error {
		id := chi.URLParam(r, "id")
		files, _, _, err := s.getFiles(r.Context(), id)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			w.WriteHeader(404)
			w.Write([]byte("not found"))
			return nil
		}
		f := files[idx]
		w.Header().Set(ctHeader, ctPlain)
		w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(f.Name))
		w.Write([]byte(f.Content))
		return nil
	})
}

func (s *Server) getFiles(ctx context.Context, id string) (files []pairFile, oldName, newName string, err error) {
	if id == "example" {
		return exampleFiles, exampleFiles[0].Name, exampleFiles[1].Name, nil
	}

	f, err := s.DB.GetFile(id)
	if err != nil {
		return nil, "", "", err
	}
	if f.IsZero() {
		return nil, "", "", nil
	}

	data, err := s.Storage.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}

	files, err = unarchivePair(data)
	if err != nil {
		return nil, "", "", err
	}
	if len(files) != 2 {
		return nil, "", "", fmt.Errorf("server: expected 2 files in archive, got %d", len(files))
	}

	return files, f.OldName, f.NewName, nil
}

var exampleFiles = []pairFile{
	{
		Name: "main.go",
		Content: `package main

import "fmt"

func sayHello(to string) string {
	return "hello " + to + "!"
}

func main() {
	fmt.Println(sayHello("world"))
}
`,
	},
	{
		Name: "server.go",
		Content: `package main

import (
	"fmt"
	"net/http"
	"os"
)

// sayHello greets whoever is passed in as an argument.
func sayHello(to string) string {
	return "hello " + to + "!"
}

func main() {
	if os.Getenv("DEBUG") == "1" {
		fmt.Println(sayHello("world"))
	}
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sayHello("internet")))
	})
	panic(http.ListenAndServe(":8080", nil))
}
`,
	},
}
