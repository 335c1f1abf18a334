package tui

import (
	"log"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// RedirectLog sends the standard logger to path while the TUI owns the
// terminal. The returned function restores the previous output.
func RedirectLog(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, goerr.Wrap(err, "create log directory", goerr.V("path", path))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, goerr.Wrap(err, "open log file", goerr.V("path", path))
	}

	prev := log.Writer()
	log.SetOutput(f)
	return func() {
		log.SetOutput(prev)
		f.Close()
	}, nil
}
