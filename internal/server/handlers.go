package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/billaudit/internal/model"
	"github.com/ppiankov/billaudit/internal/report"
	"github.com/ppiankov/billaudit/internal/worker"
)

// httpError carries a client-facing status
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var he *httpError
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &he):
				http.Error(w, he.msg, he.status)
			case errors.As(err, &tooLarge):
				http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			case req.Context().Err() != nil:
				// Client went away; nothing useful to send
				s.log.Debug("request cancelled", "request_id", RequestIDFrom(req.Context()))
			default:
				s.log.Error("request failed", "request_id", RequestIDFrom(req.Context()), "error", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

// GET /v1/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, req *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(s.pipeline.Catalog())
}

// POST /v1/audits?format=json|csv|xlsx&notes=true
// Body: multipart form, one or more PDFs in field "files"
func (s *Server) handleAudit(w http.ResponseWriter, req *http.Request) error {
	format := strings.ToLower(req.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "xlsx" {
		return badRequest("unsupported format %q (supported: json, csv, xlsx)", format)
	}

	if s.cfg.MaxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, s.cfg.MaxUploadBytes)
	}
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest("invalid multipart form: %v", err)
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	docs, err := readUploads(req)
	if err != nil {
		return err
	}

	batch, err := worker.NewBatchProcessor(s.pipeline, s.workers).Run(req.Context(), docs)
	if err != nil {
		return err
	}

	s.log.Info("audit.ok",
		"request_id", RequestIDFrom(req.Context()),
		"documents", batch.Summary.Documents,
		"with_alerts", batch.Summary.WithAlerts,
		"unreadable", batch.Summary.Unreadable,
	)

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		return report.WriteJSON(w, batch)
	}

	table := report.NewTable(batch, s.pipeline.Catalog(), report.TableOptions{
		IncludeNotes: req.URL.Query().Get("notes") == "true",
	})

	// Render fully before writing so a failure can still become an error status
	var buf bytes.Buffer
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = report.WriteCSV(&buf, table)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = report.WriteXLSX(&buf, table)
	}
	if err != nil {
		return err
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="billaudit.%s"`, format))
	_, err = buf.WriteTo(w)
	return err
}

// readUploads loads the "files" parts in upload order
func readUploads(req *http.Request) ([]model.Document, error) {
	files := req.MultipartForm.File["files"]
	if len(files) == 0 {
		return nil, badRequest(`no files uploaded (use multipart field "files")`)
	}

	docs := make([]model.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		docs = append(docs, model.Document{Name: fh.Filename, Data: data})
	}

	return docs, nil
}
