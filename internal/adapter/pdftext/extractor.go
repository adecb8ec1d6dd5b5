// Package pdftext extracts the text layer of uploaded PDF reports.
package pdftext

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable is returned when the document is not a PDF the reader can parse.
var ErrUnreadable = errors.New("unreadable pdf")

// paragraphGap is the multiple of the typical line spacing above which two
// consecutive rows are treated as separate blocks.
const paragraphGap = 1.6

// Extractor reads PDF text with row positions preserved, so blank lines
// between daily records survive extraction.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// ExtractText returns the document text, one line per text row. Vertical
// gaps noticeably wider than the line spacing become blank lines, and every
// page starts a new block. Pages that fail to decode are skipped.
func (e *Extractor) ExtractText(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pages := make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		if s := pageText(page); s != "" {
			pages = append(pages, s)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func pageText(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		return layoutRows(rows)
	}
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(plain)
}

// layoutRows renders rows top to bottom and inserts a blank line wherever
// the vertical gap exceeds paragraphGap times the median gap.
func layoutRows(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	positions := make([]int64, 0, len(rows))
	for _, row := range rows {
		line := rowText(row.Content)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		positions = append(positions, row.Position)
	}
	if len(lines) == 0 {
		return ""
	}

	gaps := make([]float64, 0, len(positions))
	for i := 1; i < len(positions); i++ {
		if g := math.Abs(float64(positions[i-1] - positions[i])); g > 0 {
			gaps = append(gaps, g)
		}
	}
	threshold := math.Inf(1)
	if len(gaps) > 0 {
		threshold = median(gaps) * paragraphGap
	}

	var b strings.Builder
	b.WriteString(lines[0])
	for i := 1; i < len(lines); i++ {
		b.WriteByte('\n')
		if math.Abs(float64(positions[i-1]-positions[i])) > threshold {
			b.WriteByte('\n')
		}
		b.WriteString(lines[i])
	}
	return b.String()
}

// rowText joins the text runs of one row, adding a space where runs are
// visibly apart.
func rowText(content pdf.TextHorizontal) string {
	var b strings.Builder
	for i, t := range content {
		if i > 0 {
			prev := content[i-1]
			if t.X-(prev.X+prev.W) > 0.15*t.FontSize && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return strings.TrimSpace(b.String())
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
