package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireDetection is the JSON shape models are asked to produce.
type wireDetection struct {
	Label      string    `json:"label"`
	Page       int       `json:"page"`
	Box2D      []float64 `json:"box_2d"`
	Confidence float64   `json:"confidence"`
}

type wireEnvelope struct {
	Detections []wireDetection `json:"detections"`
}

// ParseDetections decodes a model response into detections.
// Accepts either a bare JSON array or an object with a "detections" key,
// optionally wrapped in a markdown code fence. defaultPage is used when
// the model omits the page field; pass 0 to keep omissions as page 1.
func ParseDetections(raw string, defaultPage int) ([]Detection, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var wire []wireDetection
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		var env wireEnvelope
		if err2 := json.Unmarshal([]byte(text), &env); err2 != nil {
			return nil, fmt.Errorf("parse detections: %w", err)
		}
		wire = env.Detections
	}

	dets := make([]Detection, 0, len(wire))
	for _, w := range wire {
		if len(w.Box2D) != 4 {
			continue
		}
		box := Box{
			YMin: clamp01k(w.Box2D[0]),
			XMin: clamp01k(w.Box2D[1]),
			YMax: clamp01k(w.Box2D[2]),
			XMax: clamp01k(w.Box2D[3]),
		}
		// Degenerate boxes carry no usable region.
		if box.YMax <= box.YMin || box.XMax <= box.XMin {
			continue
		}
		page := w.Page
		if page < 1 {
			if defaultPage > 0 {
				page = defaultPage
			} else {
				page = 1
			}
		}
		conf := w.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		dets = append(dets, Detection{
			Label:      strings.TrimSpace(w.Label),
			Page:       page,
			Box:        box,
			Confidence: conf,
		})
	}
	return dets, nil
}

// stripCodeFence removes a surrounding markdown fence like ```json ... ```.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line.
		first := strings.TrimSpace(s[:idx])
		if first == "" || isLangTag(first) {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isLangTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) <= 10
}

func clamp01k(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}
