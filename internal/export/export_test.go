package export

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsgen/internal/ics"
)

func TestFile_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, File{Dir: dir}.Export("BEGIN:VCALENDAR", ics.MIMEType, "calendar.ics"))

	data, err := os.ReadFile(filepath.Join(dir, "calendar.ics"))
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR", string(data))

	// Overwrite in place, no temp files left behind.
	require.NoError(t, File{Dir: dir}.Export("second", ics.MIMEType, "calendar.ics"))
	data, err = os.ReadFile(filepath.Join(dir, "calendar.ics"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFile_RejectsPaths(t *testing.T) {
	err := File{Dir: t.TempDir()}.Export("x", ics.MIMEType, "../escape.ics")
	assert.Error(t, err)

	err = File{Dir: t.TempDir()}.Export("x", ics.MIMEType, "")
	assert.Error(t, err)
}

func TestWriter_Export(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, Writer{W: buf}.Export("content", ics.MIMEType, "ignored.ics"))
	assert.Equal(t, "content", buf.String())
}

func TestHTTP_Export(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, HTTP{W: rec}.Export("BEGIN:VCALENDAR", ics.MIMEType, "team.ics"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ics.MIMEType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=team.ics`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "15", rec.Header().Get("Content-Length"))
	assert.Equal(t, "BEGIN:VCALENDAR", rec.Body.String())
}

func TestDocumentDownloadToFile(t *testing.T) {
	dir := t.TempDir()
	doc := ics.New(ics.Options{})
	_, err := doc.Add("Meeting", "Standup", "Room A", "2024-03-01T09:00:00", "2024-03-01T09:30:00")
	require.NoError(t, err)

	cal, err := doc.Download(File{Dir: dir}, "", "")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "calendar.ics"))
	require.NoError(t, err)
	assert.Equal(t, cal, string(data))
}
