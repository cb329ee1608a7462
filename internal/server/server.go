// Package server republishes the generated base64 subscription file.
package server

import (
	"log/slog"
	"net/http"
	"os"
)

const notFoundBody = "Configs not found"

// Handler serves the file at path verbatim on GET. Any read failure is
// reported as 404.
func Handler(path string, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Debug("subscription file unavailable", "path", path, "err", err)
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(notFoundBody))
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(content)
		}
	})
}
