package suppliers

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tdr/proveedores/internal/view"
)

// PDFRenderer converts an HTML document to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

var csvHeader = []string{"id", "nombre", "contacto", "email", "telefono", "direccion", "activo", "categorias"}

// WriteCSV writes the list with a header row. Categories are joined with ";".
func WriteCSV(w *csv.Writer, list []Supplier) error {
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range list {
		row := []string{
			strconv.FormatInt(s.ID, 10),
			s.Name,
			s.Contact,
			s.Email,
			s.Phone,
			s.Address,
			strconv.FormatBool(s.Active),
			strings.Join(s.Categories, ";"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	list := sorted(h.service.GetAll(), r.URL.Query().Get("sort"))
	var buf bytes.Buffer
	if err := WriteCSV(csv.NewWriter(&buf), list); err != nil {
		h.logger.Error("export suppliers csv", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=proveedores.csv")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	list := sorted(h.service.GetAll(), r.URL.Query().Get("sort"))
	var html bytes.Buffer
	err := h.templates.Execute(&html, "pages/suppliers_print.html", view.TemplateData{
		Title:       "Listado de proveedores",
		GeneratedAt: time.Now(),
		Data:        list,
	})
	if err != nil {
		h.logger.Error("render suppliers print", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html.String())
	if err != nil {
		h.logger.Error("render suppliers pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=proveedores.pdf")
	_, _ = w.Write(pdf)
}
