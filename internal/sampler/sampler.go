// Package sampler draws a plausible set of labeled findings from an
// image. The random implementation stands in for a real inference
// backend; the orchestrator depends only on the Sampler interface so the
// strategy can be swapped without touching the request state machine.
package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/microscan/microscan-go/internal/catalog"
	"github.com/microscan/microscan-go/internal/errors"
)

// Sentinel errors for sampling failures.
var (
	ErrInsufficientCatalog = errors.Newf("catalog has fewer entries than requested sample size").
				Component("sampler").Category(errors.CategorySampling).Build()
	ErrNoDetections = errors.Newf("no organisms detected in the image").
			Component("sampler").Category(errors.CategorySampling).Build()
)

// Detection is one sampled organism instance with a synthetic bounding
// box and confidence score. The resolved catalog fields are embedded so
// serialized detections carry their display metadata.
type Detection struct {
	ClassID        string   `json:"class"`
	Confidence     float64  `json:"confidence"`
	BBox           [4]int   `json:"bbox"`
	GramType       string   `json:"gram_type"`
	Name           string   `json:"name"`
	ScientificName string   `json:"scientific_name"`
	Description    string   `json:"description"`
	Risk           string   `json:"risk"`
	HealthEffects  string   `json:"health_effects"`
	CommonSources  string   `json:"common_sources"`
}

// Sampler produces detections for an image of the given dimensions.
type Sampler interface {
	Sample(width, height int) ([]Detection, error)
}

// RandomSampler draws 2-4 distinct catalog species per image and places
// their bounding boxes in a 2-column grid.
type RandomSampler struct {
	rng *rand.Rand
}

// New returns a RandomSampler seeded from the global source.
func New() *RandomSampler {
	return &RandomSampler{}
}

// NewWithSource returns a RandomSampler using the provided source, for
// deterministic tests.
func NewWithSource(src rand.Source) *RandomSampler {
	return &RandomSampler{rng: rand.New(src)}
}

func (s *RandomSampler) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (s *RandomSampler) float64() float64 {
	if s.rng != nil {
		return s.rng.Float64()
	}
	return rand.Float64()
}

// Sample draws k ∈ {2,3,4} distinct species and assigns each a bounding
// box and a confidence in [0.70, 0.95]. Pure function of the image
// dimensions and the random source.
func (s *RandomSampler) Sample(width, height int) ([]Detection, error) {
	k := 2 + s.intN(3)
	if k == 0 {
		// Unreachable with the fixed range, kept as a guard.
		return nil, ErrNoDetections
	}
	if catalog.Size() < k {
		return nil, ErrInsufficientCatalog
	}

	species := s.drawSpecies(k)

	detections := make([]Detection, 0, k)
	for i, org := range species {
		bbox := gridBBox(i, width, height)
		confidence := math.Round((0.70+s.float64()*0.25)*100) / 100

		detections = append(detections, Detection{
			ClassID:        org.ClassID,
			Confidence:     confidence,
			BBox:           bbox,
			GramType:       string(org.GramType),
			Name:           org.Name,
			ScientificName: org.ScientificName,
			Description:    org.Description,
			Risk:           org.Risk,
			HealthEffects:  org.HealthEffects,
			CommonSources:  org.CommonSources,
		})
	}

	if len(detections) == 0 {
		return nil, ErrNoDetections
	}
	return detections, nil
}

// drawSpecies selects k distinct catalog entries uniformly without
// replacement via a partial Fisher-Yates shuffle.
func (s *RandomSampler) drawSpecies(k int) []catalog.Organism {
	all := catalog.All()
	for i := 0; i < k; i++ {
		j := i + s.intN(len(all)-i)
		all[i], all[j] = all[j], all[i]
	}
	return all[:k]
}

// gridBBox computes the bounding box for the i-th detection. Boxes are
// 15% of the image dimensions, capped at dimension-20 and floored at
// 10px, anchored on a 2-column grid and clamped 10px inside the image.
func gridBBox(i, width, height int) [4]int {
	boxW := max(10, min(int(float64(width)*0.15), width-20))
	boxH := max(10, min(int(float64(height)*0.15), height-20))

	row := i / 2
	col := i % 2

	x1 := max(10, int(float64(width)*(0.1+float64(col)*0.4)))
	y1 := max(10, int(float64(height)*(0.1+float64(row)*0.4)))
	x2 := min(width-10, x1+boxW)
	y2 := min(height-10, y1+boxH)

	return [4]int{x1, y1, x2, y2}
}
