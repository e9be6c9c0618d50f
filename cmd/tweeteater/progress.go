package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/cognicore/tweeteater/pkg/tweeteater/loader"
)

// progressFor draws a single updating line when w is a terminal and logs
// at debug level otherwise.
func progressFor(w io.Writer, logger *slog.Logger) loader.ProgressFunc {
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		return func(done, total int, path string) {
			fmt.Fprintf(f, "\r\033[K[%d/%d] %s", done, total, filepath.Base(path))
			if done == total {
				fmt.Fprintln(f)
			}
		}
	}
	return func(done, total int, path string) {
		logger.Debug("file read", "done", done, "total", total, "file", path)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
