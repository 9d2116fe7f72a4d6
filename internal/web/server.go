// Package web serves the browser console: a single page that follows the
// event stream and posts commands to the API.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var assets embed.FS

// Server serves Dir when set, the embedded console otherwise.
type Server struct {
	Dir string
}

func (s *Server) Handler() http.Handler {
	var root http.FileSystem
	if s.Dir != "" {
		root = http.Dir(s.Dir)
	} else {
		sub, err := fs.Sub(assets, "static")
		if err != nil {
			panic(err)
		}
		root = http.FS(sub)
	}
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		files.ServeHTTP(w, r)
	})
}
