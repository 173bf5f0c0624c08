package hxgrid

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pthm/hxgrid/lib/export"
	"github.com/pthm/hxgrid/lib/i18n"
)

// maxDownloadBody bounds the posted export content.
const maxDownloadBody = 32 << 20

// handleDownload serves the file the export menu built in the browser. The
// settings posted with the content must carry a valid hash: the server
// never trusts a posted MIME type, and the file name, encoding, BOM flag
// and config are only honored when their hash verifies.
func (reg *Registry) handleDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDownloadBody)
	if err := r.ParseForm(); err != nil {
		reg.reject(w, r, http.StatusBadRequest, "form", "", err)
		return
	}

	f, err := export.ParseFormat(r.PostFormValue(FieldFiletype))
	if err != nil {
		reg.reject(w, r, http.StatusBadRequest, "format", "", err)
		return
	}
	table := reg.table
	gridID := r.PostFormValue(FieldGrid)
	if gridID != "" {
		if g, err := reg.grid(gridID); err == nil {
			if t := g.exportTable(); t != nil {
				table = t
			}
		}
	}
	settings, ok := table[f]
	if !ok {
		reg.reject(w, r, http.StatusBadRequest, "format", gridID, export.ErrUnknownFormat)
		return
	}

	in := export.HashInput{
		Module:   reg.cfg.ModuleID,
		Filename: r.PostFormValue(FieldFilename),
		MIME:     settings.MIME,
		Encoding: r.PostFormValue(FieldEncoding),
		BOM:      r.PostFormValue(FieldBOM) == "1",
		Config:   r.PostFormValue(FieldConfig),
	}
	if in.Config == "" {
		in.Config = "{}"
	}
	if err := export.Verify(reg.salt, in, r.PostFormValue(FieldHash)); err != nil {
		status := http.StatusForbidden
		if !errors.Is(err, export.ErrHashMismatch) {
			status = http.StatusInternalServerError
		}
		reg.reject(w, r, status, "hash", gridID, err)
		return
	}

	content, encoding, status, err := reg.processContent(r, f, in, r.PostFormValue(FieldContent))
	if err != nil {
		reg.reject(w, r, status, "content", gridID, err)
		return
	}

	filename := in.Filename
	if filename == "" {
		filename = export.DefaultFilename
	}
	writeDownloadHeaders(w, settings.MIME, encoding, filename, f.Extension())
	_, _ = w.Write(content)
	if reg.metrics != nil {
		reg.metrics.Exports.WithLabelValues(string(f), "download").Inc()
	}
}

// processContent prepares the posted content of format f. It returns the
// file body, its charset and, on failure, the response status.
func (reg *Registry) processContent(r *http.Request, f export.Format, in export.HashInput, content string) ([]byte, string, int, error) {
	switch f {
	case export.HTML, export.Excel:
		clean, err := export.Purify(content)
		if err != nil {
			return nil, "", http.StatusBadRequest, err
		}
		return []byte(clean), "utf-8", 0, nil

	case export.CSV, export.Text:
		text, encoding, err := encodeText(f, content, in.Encoding, in.BOM)
		if err != nil {
			return nil, "", http.StatusBadRequest, err
		}
		return []byte(text), encoding, 0, nil

	case export.JSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(content), "", "    "); err != nil {
			return nil, "", http.StatusBadRequest, err
		}
		return buf.Bytes(), "utf-8", 0, nil

	case export.PDF:
		if reg.pdf == nil {
			return nil, "", http.StatusNotImplemented, export.ErrNoPDFRenderer
		}
		clean, err := export.Purify(content)
		if err != nil {
			return nil, "", http.StatusBadRequest, err
		}
		var config map[string]any
		if err := json.Unmarshal([]byte(in.Config), &config); err != nil {
			return nil, "", http.StatusBadRequest, err
		}
		var buf bytes.Buffer
		if err := reg.pdf.RenderPDF(r.Context(), &buf, []byte(clean), config); err != nil {
			return nil, "", http.StatusInternalServerError, err
		}
		return buf.Bytes(), "utf-8", 0, nil
	}
	return nil, "", http.StatusBadRequest, export.ErrUnknownFormat
}

// reject answers a refused download with a JSON error payload.
func (reg *Registry) reject(w http.ResponseWriter, r *http.Request, status int, reason, gridID string, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		level = slog.LevelError
	}
	reg.logger.LogAttrs(r.Context(), level, "export download rejected",
		logAttrGrid(gridID),
		logAttrFormat(r.PostFormValue(FieldFiletype)),
		slog.String("reason", reason),
		slog.String("remote", r.RemoteAddr),
		logAttrError(err),
	)
	if reg.metrics != nil {
		reg.metrics.ExportRejected.WithLabelValues(reason).Inc()
	}

	msg := err.Error()
	if reason == "hash" && status == http.StatusForbidden {
		msg = reg.translator.T(i18n.Language(r.Context()), "export.rejected")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
