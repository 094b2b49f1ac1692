// Package catalog provides the static reference table of waterborne
// microorganism species and their descriptive and risk metadata.
package catalog

import (
	"strings"
)

// GramType describes the gram staining classification of an organism.
type GramType string

const (
	GramPositive GramType = "positive"
	GramNegative GramType = "negative"
)

// Organism describes a single catalog species. Entries are defined at
// process start and never mutated.
type Organism struct {
	ClassID            string   `json:"class"`
	Name               string   `json:"name"`
	ScientificName     string   `json:"scientific_name"`
	GramType           GramType `json:"gram_type"`
	Morphology         string   `json:"morphology"`
	Description        string   `json:"description"`
	Risk               string   `json:"risk"`
	HealthEffects      string   `json:"health_effects"`
	CommonSources      string   `json:"common_sources"`
	OptimalPH          string   `json:"optimal_ph,omitempty"`
	OptimalTemp        string   `json:"optimal_temp,omitempty"`
	OxygenRequirements string   `json:"oxygen_requirements,omitempty"`
}

// Lookup returns the descriptor for a class id. Unknown ids never fail;
// a synthesized descriptor with a title-cased name and "Unknown" risk is
// returned instead so callers downstream always have display data.
func Lookup(classID string) Organism {
	if org, ok := byClassID[strings.ToLower(classID)]; ok {
		return org
	}
	return Organism{
		ClassID:        classID,
		Name:           titleCaseID(classID),
		ScientificName: classID,
		Description:    "No description available.",
		Risk:           "Unknown",
		HealthEffects:  "No health effects information available.",
	}
}

// All returns the full catalog in its defined order.
func All() []Organism {
	out := make([]Organism, len(organisms))
	copy(out, organisms)
	return out
}

// Size returns the number of species in the catalog.
func Size() int {
	return len(organisms)
}

// titleCaseID turns a snake_case class id into a display name,
// e.g. "e_coli" -> "E Coli".
func titleCaseID(classID string) string {
	parts := strings.Split(classID, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

var byClassID = func() map[string]Organism {
	m := make(map[string]Organism, len(organisms))
	for _, org := range organisms {
		m[org.ClassID] = org
	}
	return m
}()

var organisms = []Organism{
	{
		ClassID:            "e_coli",
		Name:               "Escherichia coli",
		ScientificName:     "Escherichia coli",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, 2.0 μm long and 0.25–1.0 μm in diameter",
		Description:        "A gram-negative, facultative anaerobic, rod-shaped coliform bacterium commonly found in the lower intestine of warm-blooded organisms.",
		Risk:               "High",
		HealthEffects:      "Can cause diarrhea, urinary tract infections, respiratory illness, and other infections. Some strains can cause serious food poisoning.",
		CommonSources:      "Contaminated water, undercooked ground beef, raw milk, and fresh produce.",
		OptimalPH:          "6.5-7.5",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "staphylococcus_aureus",
		Name:               "Staphylococcus aureus",
		ScientificName:     "Staphylococcus aureus",
		GramType:           GramPositive,
		Morphology:         "Spherical cells, 1 μm in diameter, forms grape-like clusters",
		Description:        "A gram-positive, round-shaped bacterium that is a usual member of the microbiota of the body.",
		Risk:               "High",
		HealthEffects:      "Can cause skin infections, pneumonia, heart valve infections, and bone infections. Some strains are resistant to common antibiotics (MRSA).",
		CommonSources:      "Human skin and nasal passages, can contaminate food and water.",
		OptimalPH:          "7.0-7.5",
		OptimalTemp:        "30-37°C (86-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "salmonella_enterica",
		Name:               "Salmonella",
		ScientificName:     "Salmonella enterica",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, 2-5 μm long and 0.5-1.5 μm in diameter",
		Description:        "A rod-shaped, gram-negative bacterium that causes foodborne illness. It is motile and does not form spores.",
		Risk:               "High",
		HealthEffects:      "Causes salmonellosis with symptoms including diarrhea, fever, and abdominal cramps 12-72 hours after infection.",
		CommonSources:      "Raw poultry, eggs, beef, and sometimes on unwashed fruit and vegetables.",
		OptimalPH:          "6.5-7.5",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "pseudomonas_aeruginosa",
		Name:               "Pseudomonas aeruginosa",
		ScientificName:     "Pseudomonas aeruginosa",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, 0.5-0.8 μm by 1.5-3.0 μm",
		Description:        "A common encapsulated, gram-negative, rod-shaped bacterium that can cause disease in plants and animals.",
		Risk:               "High in healthcare settings",
		HealthEffects:      "Can cause serious infections in the blood, lungs, or other parts of the body, especially in people with weakened immune systems.",
		CommonSources:      "Soil, water, and moist environments like sinks and toilets.",
		OptimalPH:          "6.6-7.4",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Obligate aerobe",
	},
	{
		ClassID:            "bacillus_subtilis",
		Name:               "Bacillus subtilis",
		ScientificName:     "Bacillus subtilis",
		GramType:           GramPositive,
		Morphology:         "Rod-shaped, 4-10 μm long and 0.25-1.0 μm in diameter, forms endospores",
		Description:        "A gram-positive, catalase-positive bacterium, found in soil and the gastrointestinal tract of ruminants and humans.",
		Risk:               "Low",
		HealthEffects:      "Generally considered non-pathogenic, but can cause food spoilage and, rarely, infections in immunocompromised individuals.",
		CommonSources:      "Soil, water, and air.",
		OptimalPH:          "5.5-8.5",
		OptimalTemp:        "25-35°C (77-95°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "enterococcus_faecalis",
		Name:               "Enterococcus faecalis",
		ScientificName:     "Enterococcus faecalis",
		GramType:           GramPositive,
		Morphology:         "Oval cocci, 0.5-1.0 μm in diameter, occurring in pairs or short chains",
		Description:        "A gram-positive, commensal bacterium inhabiting the gastrointestinal tracts of humans and other mammals.",
		Risk:               "Medium",
		HealthEffects:      "Can cause urinary tract infections, bacteremia, bacterial endocarditis, diverticulitis, and meningitis.",
		CommonSources:      "Human gastrointestinal tract, can contaminate water supplies.",
		OptimalPH:          "6.5-7.5",
		OptimalTemp:        "35-37°C (95-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "vibrio_cholerae",
		Name:               "Vibrio cholerae",
		ScientificName:     "Vibrio cholerae",
		GramType:           GramNegative,
		Morphology:         "Comma-shaped rod, 1.4-2.6 μm long and 0.5 μm in diameter",
		Description:        "A gram-negative, comma-shaped bacterium that is the causative agent of the diarrheal disease cholera.",
		Risk:               "High in endemic areas",
		HealthEffects:      "Causes severe watery diarrhea that can lead to dehydration and death if untreated.",
		CommonSources:      "Contaminated water, especially in areas with poor sanitation.",
		OptimalPH:          "8.5-9.5",
		OptimalTemp:        "30-40°C (86-104°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "klebsiella_pneumoniae",
		Name:               "Klebsiella pneumoniae",
		ScientificName:     "Klebsiella pneumoniae",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, 0.3-1.0 μm wide and 0.6-6.0 μm long",
		Description:        "A gram-negative, encapsulated, non-motile bacterium found in the normal flora of the mouth, skin, and intestines.",
		Risk:               "High in healthcare settings",
		HealthEffects:      "Can cause pneumonia, bloodstream infections, wound or surgical site infections, and meningitis.",
		CommonSources:      "Human gastrointestinal tract, soil, and water.",
		OptimalPH:          "7.2-7.4",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "proteus_mirabilis",
		Name:               "Proteus mirabilis",
		ScientificName:     "Proteus mirabilis",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, 0.4-0.8 μm wide and 1.0-3.0 μm long, highly motile",
		Description:        "A gram-negative, facultatively anaerobic, rod-shaped bacterium that shows swarming motility and urease activity.",
		Risk:               "Medium",
		HealthEffects:      "Common cause of urinary tract infections and is also known to cause wound infections and other infections in humans.",
		CommonSources:      "Widely distributed in soil and water, and in the human intestinal tract.",
		OptimalPH:          "6.0-7.0",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "serratia_marcescens",
		Name:               "Serratia marcescens",
		ScientificName:     "Serratia marcescens",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, 0.5-0.8 μm wide and 0.9-2.0 μm long",
		Description:        "A gram-negative, rod-shaped, facultatively anaerobic, opportunistic pathogen that produces a red pigment called prodigiosin.",
		Risk:               "Medium to High in healthcare settings",
		HealthEffects:      "Can cause urinary tract infections, respiratory tract infections, endocarditis, osteomyelitis, septicemia, and eye infections.",
		CommonSources:      "Ubiquitous in the environment, found in soil, water, plants, and animals.",
		OptimalPH:          "5-9",
		OptimalTemp:        "20-37°C (68-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "shigella_dysenteriae",
		Name:               "Shigella dysenteriae",
		ScientificName:     "Shigella dysenteriae",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, non-motile, non-spore forming, 1-3 μm in length",
		Description:        "A gram-negative, non-motile, non-spore forming, rod-shaped bacterium that is the causative agent of bacillary dysentery.",
		Risk:               "High",
		HealthEffects:      "Causes severe diarrhea (dysentery) with blood and mucus in the stools, fever, and abdominal pain.",
		CommonSources:      "Contaminated food and water, poor sanitation.",
		OptimalPH:          "6.0-8.0",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "enterobacter_aerogenes",
		Name:               "Enterobacter aerogenes",
		ScientificName:     "Enterobacter aerogenes",
		GramType:           GramNegative,
		Morphology:         "Rod-shaped, 0.6-1.0 μm in diameter and 1.2-3.0 μm in length",
		Description:        "A gram-negative, rod-shaped, facultative-anaerobic bacterium that is part of the normal gut flora.",
		Risk:               "Medium to High in healthcare settings",
		HealthEffects:      "Can cause various infections including bacteremia, lower respiratory tract infections, skin and soft-tissue infections, and urinary tract infections.",
		CommonSources:      "Human gastrointestinal tract, soil, water, and sewage.",
		OptimalPH:          "6.0-7.5",
		OptimalTemp:        "30-37°C (86-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "citrobacter_freundii",
		Name:               "Citrobacter freundii",
		ScientificName:     "Citrobacter freundii",
		GramType:           GramNegative,
		Morphology:         "Straight rod, 1.0 μm in diameter and 2.0-6.0 μm in length",
		Description:        "A gram-negative, rod-shaped bacterium that is a member of the Enterobacteriaceae family.",
		Risk:               "Medium",
		HealthEffects:      "Can cause opportunistic infections including respiratory infections, urinary tract infections, and bacteremia.",
		CommonSources:      "Widely distributed in water, soil, and the intestinal tracts of animals and humans.",
		OptimalPH:          "7.0-7.5",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "acinetobacter_baumannii",
		Name:               "Acinetobacter baumannii",
		ScientificName:     "Acinetobacter baumannii",
		GramType:           GramNegative,
		Morphology:         "Coccobacillus, 1.0-1.5 μm in diameter and 1.5-2.5 μm in length",
		Description:        "A gram-negative, aerobic, non-motile, oxidase-negative coccobacillus that is an important nosocomial pathogen.",
		Risk:               "High in healthcare settings",
		HealthEffects:      "Can cause pneumonia, bloodstream infections, meningitis, and wound infections, particularly in intensive care units.",
		CommonSources:      "Soil, water, and in the hospital environment on surfaces and medical equipment.",
		OptimalPH:          "6.5-7.5",
		OptimalTemp:        "30-35°C (86-95°F)",
		OxygenRequirements: "Obligate aerobe",
	},
	{
		ClassID:            "streptococcus_pyogenes",
		Name:               "Streptococcus pyogenes",
		ScientificName:     "Streptococcus pyogenes",
		GramType:           GramPositive,
		Morphology:         "Spherical, 0.6-1.0 μm in diameter, forms chains",
		Description:        "A gram-positive, non-motile, non-spore forming coccus that is the cause of group A streptococcal infections.",
		Risk:               "High",
		HealthEffects:      "Causes a wide range of infections including strep throat, scarlet fever, impetigo, and necrotizing fasciitis.",
		CommonSources:      "Human respiratory tract and skin.",
		OptimalPH:          "7.4-7.6",
		OptimalTemp:        "37°C (98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "staphylococcus_epidermidis",
		Name:               "Staphylococcus epidermidis",
		ScientificName:     "Staphylococcus epidermidis",
		GramType:           GramPositive,
		Morphology:         "Spherical cells, 0.5-1.5 μm in diameter, forms grape-like clusters",
		Description:        "A gram-positive, coagulase-negative coccus that is part of the normal human flora, typically the skin flora and less commonly the mucosal flora.",
		Risk:               "Low to Medium",
		HealthEffects:      "Generally non-pathogenic but can cause infections in immunocompromised individuals or when introduced into the body through medical devices.",
		CommonSources:      "Human skin and mucous membranes.",
		OptimalPH:          "7.0-7.5",
		OptimalTemp:        "30-37°C (86-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "bacillus_cereus",
		Name:               "Bacillus cereus",
		ScientificName:     "Bacillus cereus",
		GramType:           GramPositive,
		Morphology:         "Large rod, 1.0-1.2 μm in diameter and 3.0-5.0 μm in length, forms endospores",
		Description:        "A gram-positive, rod-shaped, beta-hemolytic, spore-forming bacterium that can cause foodborne illness.",
		Risk:               "Medium",
		HealthEffects:      "Causes two types of food poisoning: diarrheal and emetic (vomiting) syndromes.",
		CommonSources:      "Soil, vegetation, and a wide range of foods including rice, pasta, and dairy products.",
		OptimalPH:          "6.0-8.5",
		OptimalTemp:        "30-37°C (86-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "listeria_monocytogenes",
		Name:               "Listeria monocytogenes",
		ScientificName:     "Listeria monocytogenes",
		GramType:           GramPositive,
		Morphology:         "Short rod, 0.5-2.0 μm in diameter and 0.5-2.0 μm in length",
		Description:        "A gram-positive, facultative anaerobic, rod-shaped bacterium that can grow and reproduce inside the host's cells.",
		Risk:               "High for pregnant women, newborns, elderly, and immunocompromised individuals",
		HealthEffects:      "Causes listeriosis, which can result in sepsis, meningitis, and complications during pregnancy.",
		CommonSources:      "Soil, water, decaying vegetation, and can grow at refrigeration temperatures.",
		OptimalPH:          "6.0-8.0",
		OptimalTemp:        "30-37°C (86-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
	{
		ClassID:            "clostridium_perfringens",
		Name:               "Clostridium perfringens",
		ScientificName:     "Clostridium perfringens",
		GramType:           GramPositive,
		Morphology:         "Large, rod-shaped, 4-8 μm long and 0.8-1.5 μm wide, forms spores",
		Description:        "A gram-positive, rod-shaped, anaerobic, spore-forming bacterium that is found in soil, decaying vegetation, and the intestinal tract of humans and animals.",
		Risk:               "Medium",
		HealthEffects:      "Causes food poisoning, gas gangrene, and other infections. Produces several toxins that can cause tissue damage.",
		CommonSources:      "Soil, decaying vegetation, marine sediment, and the intestinal tract of humans and animals.",
		OptimalPH:          "6.0-7.0",
		OptimalTemp:        "37-45°C (98.6-113°F)",
		OxygenRequirements: "Obligate anaerobe",
	},
	{
		ClassID:            "vibrio_parahaemolyticus",
		Name:               "Vibrio parahaemolyticus",
		ScientificName:     "Vibrio parahaemolyticus",
		GramType:           GramNegative,
		Morphology:         "Curved rod, 0.4-0.5 μm in diameter and 1.4-2.6 μm in length",
		Description:        "A curved, rod-shaped, gram-negative bacterium found in brackish saltwater which, when ingested, causes gastrointestinal illness in humans.",
		Risk:               "Medium",
		HealthEffects:      "Causes watery diarrhea, abdominal cramping, nausea, vomiting, fever, and chills. In rare cases, can cause septicemia.",
		CommonSources:      "Coastal waters, especially in warm months, and in undercooked or raw seafood.",
		OptimalPH:          "7.6-8.6",
		OptimalTemp:        "30-37°C (86-98.6°F)",
		OxygenRequirements: "Facultative anaerobe",
	},
}
