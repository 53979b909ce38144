// Package export renders the task list in formats meant for other tools
// and for printing.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

// Source provides the view to export. *todo.Store satisfies it.
type Source interface {
	Query() todo.View
}

// Exporter renders the visible tasks of a Source.
type Exporter struct {
	src   Source
	title string
	now   func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithTitle sets the heading used by the pdf format.
func WithTitle(title string) Option {
	return func(e *Exporter) {
		if title != "" {
			e.title = title
		}
	}
}

// WithClock sets the time stamped into pdf output.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExporter returns an Exporter over src.
func NewExporter(src Source, opts ...Option) *Exporter {
	e := &Exporter{src: src, title: "Tasks", now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Formats lists the supported export formats.
func Formats() []string {
	formats := append([]string{"csv", "pdf"}, storage.CodecNames()...)
	sort.Strings(formats)
	return formats
}

// Export renders the current view in the named format.
//
// The pdf format draws with the core Arial font, which covers code page
// 1252 (Latin-1 plus a few symbols). Characters outside it, such as CJK
// text or emoji, print as '?'. The json, yaml, toml and csv formats keep
// the text unchanged.
func (e *Exporter) Export(format string) ([]byte, error) {
	view := e.src.Query()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return renderCSV(view)
	case "pdf":
		return e.renderPDF(view)
	default:
		codec, err := storage.CodecFor(format)
		if err != nil {
			return nil, fmt.Errorf("unknown export format %q, must be one of: %s", format, strings.Join(Formats(), ", "))
		}
		return codec.Encode(view.Visible)
	}
}

func renderCSV(view todo.View) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	if err := w.Write([]string{"id", "text", "completed"}); err != nil {
		return nil, err
	}
	for _, t := range view.Visible {
		record := []string{strconv.FormatInt(t.ID, 10), t.Text, strconv.FormatBool(t.Completed)}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return b.Bytes(), nil
}

func (e *Exporter) renderPDF(view todo.View) ([]byte, error) {
	now := e.now()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(now)
	pdf.SetTitle(e.title, true)
	tr := cp1252Text(pdf.UnicodeTranslatorFromDescriptor(""))

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("%s (%s)", e.title, view.Filter.Title())))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	if len(view.Visible) == 0 {
		pdf.Cell(0, 7, "No tasks")
		pdf.Ln(8)
	}
	for _, t := range view.Visible {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		pdf.MultiCell(0, 7, tr(box+" "+t.Text), "0", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 6, fmt.Sprintf("%s - exported %s", view.CountLabel(), now.Format("2006-01-02 15:04")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// cp1252Text wraps a gofpdf translator so runes missing from the code page
// become '?' instead of the translator's '.'.
func cp1252Text(tr func(string) string) func(string) string {
	return func(s string) string {
		return tr(strings.Map(func(r rune) rune {
			if r >= 0x80 && tr(string(r)) == "." {
				return '?'
			}
			return r
		}, s))
	}
}
