package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// staticFileServer serves the embedded assets. Directory listings are
// answered with 404 instead of an index page.
func staticFileServer(assets fs.FS) http.Handler {
	fileServer := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		info, err := fs.Stat(assets, path)
		if path == "" || err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}
