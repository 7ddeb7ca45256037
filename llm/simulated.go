package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/em0-omg/pdf-highlight-api/raster"
)

// SimulatedAnalyzer produces deterministic fake results without any
// network calls. Useful for local development and smoke tests.
type SimulatedAnalyzer struct{}

func NewSimulatedAnalyzer() *SimulatedAnalyzer { return &SimulatedAnalyzer{} }

func (s *SimulatedAnalyzer) Name() string { return "simulated" }

// DetectRegions returns one or two plausible boxes per page, seeded from
// the query so repeated runs agree.
func (s *SimulatedAnalyzer) DetectRegions(_ context.Context, pages []raster.PageImage, query string) ([]Detection, error) {
	rng := rand.New(rand.NewSource(seed(query)))

	var dets []Detection
	for _, page := range pages {
		n := 1 + rng.Intn(2)
		for i := 0; i < n; i++ {
			ymin := float64(rng.Intn(700))
			xmin := float64(rng.Intn(700))
			dets = append(dets, Detection{
				Label:      fmt.Sprintf("match %d for %q", i+1, query),
				Page:       page.Number,
				Confidence: 0.5 + rng.Float64()*0.5,
				Box: Box{
					YMin: ymin,
					XMin: xmin,
					YMax: ymin + 50 + float64(rng.Intn(200)),
					XMax: xmin + 50 + float64(rng.Intn(250)),
				},
			})
		}
	}
	return dets, nil
}

func (s *SimulatedAnalyzer) DescribePage(_ context.Context, page raster.PageImage, instruction string) (string, error) {
	return fmt.Sprintf("Simulated analysis of page %d (%dx%d px): %s", page.Number, page.Width, page.Height, instruction), nil
}

func (s *SimulatedAnalyzer) DescribeDocument(_ context.Context, pages []raster.PageImage, instruction string) (string, error) {
	return fmt.Sprintf("Simulated analysis of a %d-page document: %s", len(pages), instruction), nil
}

func seed(query string) int64 {
	h := fnv.New64a()
	h.Write([]byte(query))
	return int64(h.Sum64())
}
