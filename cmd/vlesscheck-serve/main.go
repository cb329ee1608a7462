package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/DarkFirexs/Parser/internal/logging"
	"github.com/DarkFirexs/Parser/internal/output"
	"github.com/DarkFirexs/Parser/internal/server"
)

func main() {
	var (
		addr    string
		dir     string
		verbose bool
	)

	flag.StringVar(&addr, "addr", ":8080", "listen address")
	flag.StringVar(&dir, "dir", ".", "directory holding "+output.FileAllB64)
	flag.BoolVar(&verbose, "verbose", false, "enable debug logs")
	flag.Parse()

	log := logging.NewLogger(os.Getenv("LOG_LEVEL"), verbose)
	path := filepath.Join(dir, output.FileAllB64)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(path, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("serving subscription", "addr", addr, "file", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
