package extractor

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText holds the extracted text of a single page. Pages are 1-based.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// ExtractText extracts per-page text from a PDF held in memory.
// Pages with no extractable text yield an empty string.
func ExtractText(data []byte) ([]PageText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	totalPage := r.NumPage()
	pages := make([]PageText, 0, totalPage)

	for i := 1; i <= totalPage; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, PageText{Page: i})
			continue
		}

		rows := groupTextsIntoRows(p.Content().Text)

		var sb strings.Builder
		for _, row := range rows {
			sb.WriteString(strings.Join(row.contents, " "))
			sb.WriteString("\n")
		}
		pages = append(pages, PageText{Page: i, Text: strings.TrimRight(sb.String(), "\n")})
	}

	return pages, nil
}

type rowData struct {
	y        float64
	contents []string
	xCoords  []float64
}

// groupTextsIntoRows clusters text fragments sharing a baseline, then orders
// rows top to bottom and fragments left to right. PDF Y grows upward.
func groupTextsIntoRows(texts []pdf.Text) []rowData {
	if len(texts) == 0 {
		return nil
	}

	var rows []rowData
	tolerance := 2.0

	for _, t := range texts {
		content := strings.TrimSpace(t.S)
		if content == "" {
			continue
		}

		placed := false
		for i := range rows {
			if abs(rows[i].y-t.Y) < tolerance {
				rows[i].contents = append(rows[i].contents, content)
				rows[i].xCoords = append(rows[i].xCoords, t.X)
				placed = true
				break
			}
		}

		if !placed {
			rows = append(rows, rowData{
				y:        t.Y,
				contents: []string{content},
				xCoords:  []float64{t.X},
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].y > rows[j].y
	})

	for i := range rows {
		row := &rows[i]
		idx := make([]int, len(row.contents))
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return row.xCoords[idx[a]] < row.xCoords[idx[b]]
		})
		contents := make([]string, len(idx))
		xs := make([]float64, len(idx))
		for j, k := range idx {
			contents[j] = row.contents[k]
			xs[j] = row.xCoords[k]
		}
		row.contents = contents
		row.xCoords = xs
	}

	return rows
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
