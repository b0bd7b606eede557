package extract

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	rowTolerance = 2.0
	// Gaps wider than columnGap font-widths become a column break, which the
	// column layout in ParseLine splits on.
	columnGap = 1.5
	wordGap   = 0.15
)

type textRow struct {
	y     float64
	texts []pdf.Text
}

// PDFText reads the text layer of a PDF document and returns it as one line
// per visual row, top to bottom.
func PDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var out strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		for _, row := range groupRows(page.Content().Text) {
			line := joinRow(row.texts)
			if strings.TrimSpace(line) == "" {
				continue
			}
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}

	return out.String(), nil
}

func groupRows(texts []pdf.Text) []*textRow {
	rows := make([]*textRow, 0)
	for _, t := range texts {
		var row *textRow
		for _, r := range rows {
			if math.Abs(r.y-t.Y) < rowTolerance {
				row = r
				break
			}
		}
		if row == nil {
			row = &textRow{y: t.Y}
			rows = append(rows, row)
		}
		row.texts = append(row.texts, t)
	}

	// PDF coordinates grow upwards.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	return rows
}

func joinRow(texts []pdf.Text) string {
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			gap := t.X - (prev.X + prev.W)
			size := prev.FontSize
			if size <= 0 {
				size = 10
			}
			switch {
			case gap > columnGap*size:
				b.WriteString("  ")
			case gap > wordGap*size && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}

	return b.String()
}
