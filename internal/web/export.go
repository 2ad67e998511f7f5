package web

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/erazemk/scannerlog/internal/model"
)

// attachment streams a download to the browser.
type attachment struct {
	w       http.ResponseWriter
	started bool
}

func (a *attachment) Save(name string, data []byte) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := a.w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("X-Content-Type-Options", "nosniff")
	a.w.WriteHeader(http.StatusOK)
	a.started = true
	if _, err := a.w.Write(data); err != nil {
		return "", fmt.Errorf("writing download: %w", err)
	}
	return name, nil
}

// Export handles GET /export/{format}. On failure it goes back to the
// dashboard, where the queued notice explains what happened, unless the
// download had already started.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	if !model.ValidExportFormat(format) {
		http.Error(w, "unsupported export format", http.StatusNotFound)
		return
	}

	dl := &attachment{w: w}
	if _, err := s.App.Inventory.ExportTo(r.Context(), format, dl); err != nil && !dl.started {
		backToDashboard(w, r)
	}
}
