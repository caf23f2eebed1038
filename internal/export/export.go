// Package export provides ics.Exporter implementations: a file on disk,
// an arbitrary writer (stdout) and an HTTP attachment download.
package export

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	appLog "icsgen/internal/log"
	"icsgen/internal/metric"
)

// File writes the calendar into Dir/filename.
type File struct {
	Dir string
}

// Export writes content atomically: a temp file in the same directory is
// synced and renamed over the target, so readers never see a partial file.
func (f File) Export(content, _ string, filename string) error {
	if filename == "" {
		return errors.New("export: filename is empty")
	}
	if filepath.Base(filename) != filename {
		return fmt.Errorf("export: filename %q must not contain a path", filename)
	}

	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsgen-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	path := filepath.Join(dir, filename)
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	metric.ExportsTotal.WithLabelValues("file").Inc()
	appLog.Info("calendar written", "path", path, "bytes", len(content))
	return nil
}

// Writer copies the calendar to W unchanged.
type Writer struct {
	W io.Writer
}

func (w Writer) Export(content, _ string, _ string) error {
	if _, err := io.WriteString(w.W, content); err != nil {
		return err
	}
	metric.ExportsTotal.WithLabelValues("writer").Inc()
	return nil
}

// HTTP sends the calendar as an attachment so that browsers save it under
// filename.
type HTTP struct {
	W http.ResponseWriter
}

func (h HTTP) Export(content, mimeType, filename string) error {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	hdr := h.W.Header()
	hdr.Set("Content-Type", mimeType)
	hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	hdr.Set("Content-Length", strconv.Itoa(len(content)))
	h.W.WriteHeader(http.StatusOK)

	if _, err := io.WriteString(h.W, content); err != nil {
		return err
	}
	metric.ExportsTotal.WithLabelValues("http").Inc()
	return nil
}
