// Package recommend derives water-usage recommendations from detected
// organisms using a fixed risk-tier rule table.
package recommend

import (
	"strings"

	"github.com/microscan/microscan-go/internal/sampler"
)

// SchemaVersion identifies the serialized shape of Recommendations so
// future migrations can detect legacy rows.
const SchemaVersion = 1

// Risk levels in ascending order of severity.
const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// Ordinal risk scores used to aggregate the overall level.
const (
	scoreLow    = 0
	scoreMedium = 1
	scoreHigh   = 2
)

// highRiskClasses and mediumRiskClasses drive the ordinal aggregation.
// All other classes score low. Descriptor-level risk labels are carried
// in DetailedRisks independently of this table.
var highRiskClasses = map[string]bool{
	"e_coli":              true,
	"salmonella_enterica": true,
	"vibrio_cholerae":     true,
}

var mediumRiskClasses = map[string]bool{
	"staphylococcus_aureus":  true,
	"pseudomonas_aeruginosa": true,
	"enterococcus_faecalis":  true,
}

// OrganismRisk is the per-organism entry in DetailedRisks.
type OrganismRisk struct {
	Name           string `json:"name"`
	ScientificName string `json:"scientific_name"`
	RiskLevel      string `json:"risk_level"`
	HealthEffects  string `json:"health_effects"`
}

// Recommendations is the derived safe/unsafe/treatment guidance for a
// set of detected organisms.
type Recommendations struct {
	SchemaVersion     int            `json:"schema_version"`
	RiskLevel         string         `json:"risk_level"`
	SafeUses          []string       `json:"safe_uses"`
	UnsafeUses        []string       `json:"unsafe_uses"`
	TreatmentRequired []string       `json:"treatment_required"`
	DetailedRisks     []OrganismRisk `json:"detailed_risks"`
}

// Degraded returns the fallback recommendation set used when generation
// fails mid-upload. The upload continues with this placeholder rather
// than aborting.
func Degraded() Recommendations {
	return Recommendations{
		SchemaVersion:     SchemaVersion,
		RiskLevel:         RiskUnknown,
		SafeUses:          []string{},
		UnsafeUses:        []string{},
		TreatmentRequired: []string{"Unable to generate recommendations"},
		DetailedRisks:     []OrganismRisk{},
	}
}

// ForDetections computes the aggregate risk level and the matching
// water-usage guidance. An empty detection list yields the low branch.
func ForDetections(detections []sampler.Detection) Recommendations {
	rec := Recommendations{
		SchemaVersion: SchemaVersion,
		RiskLevel:     RiskLow,
		DetailedRisks: make([]OrganismRisk, 0, len(detections)),
	}

	maxScore := scoreLow
	for i := range detections {
		det := &detections[i]

		score := scoreLow
		switch {
		case highRiskClasses[det.ClassID]:
			score = scoreHigh
		case mediumRiskClasses[det.ClassID]:
			score = scoreMedium
		}
		if score > maxScore {
			maxScore = score
		}

		rec.DetailedRisks = append(rec.DetailedRisks, OrganismRisk{
			Name:           det.Name,
			ScientificName: det.ScientificName,
			RiskLevel:      strings.ToLower(det.Risk),
			HealthEffects:  det.HealthEffects,
		})
	}

	switch maxScore {
	case scoreHigh:
		rec.RiskLevel = RiskHigh
		rec.UnsafeUses = []string{"Drinking", "Cooking", "Bathing"}
		rec.SafeUses = []string{"Industrial use (with treatment)"}
		rec.TreatmentRequired = []string{
			"Boiling for at least 1 minute",
			"Chemical disinfection",
			"Filtration (0.2-0.4 micron)",
			"UV treatment",
		}
	case scoreMedium:
		rec.RiskLevel = RiskMedium
		rec.UnsafeUses = []string{"Drinking without treatment"}
		rec.SafeUses = []string{"Bathing", "Washing", "Irrigation (non-food crops)"}
		rec.TreatmentRequired = []string{
			"Boiling",
			"Basic filtration",
			"Chlorination",
		}
	default:
		rec.RiskLevel = RiskLow
		rec.SafeUses = []string{
			"Irrigation",
			"Industrial use",
			"Landscaping",
		}
		rec.UnsafeUses = []string{}
		rec.TreatmentRequired = []string{"None required for non-potable uses"}
	}

	return rec
}
