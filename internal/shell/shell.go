// Package shell embeds the browser application shell served by the gateway.
package shell

import (
	"bytes"
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

//go:embed static
var staticFiles embed.FS

// Manifest lists the shell assets relative to the shell root. These are the
// paths the offline controller precaches.
func Manifest() []string {
	return []string{
		"./",
		"./index.html",
		"./cub.css",
		"./cub.js",
		"./cub.webmanifest",
		"./icons/cub-icon-192.svg",
		"./icons/cub-icon-512.svg",
	}
}

// FS returns the shell files rooted at the shell directory.
func FS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // static is always embedded
	}
	return sub
}

// Handler serves the shell. The root, /index.html and unknown paths
// without an extension all get index.html so deep links load the
// application.
func Handler() http.Handler {
	files := FS()
	fileServer := http.FileServer(http.FS(files))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" || name == "index.html" {
			serveIndex(w, r, files)
			return
		}
		if _, err := fs.Stat(files, name); err != nil {
			if path.Ext(name) == "" {
				serveIndex(w, r, files)
				return
			}
			http.NotFound(w, r)
			return
		}
		if path.Ext(name) == ".webmanifest" {
			w.Header().Set("Content-Type", "application/manifest+json")
		}
		fileServer.ServeHTTP(w, r)
	})
}

// serveIndex writes index.html without the FileServer redirect from
// /index.html to /.
func serveIndex(w http.ResponseWriter, r *http.Request, files fs.FS) {
	data, err := fs.ReadFile(files, "index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(data))
}
