package inference

import "strings"

// Severity is the coarse qualitative tier attached to a detection result.
type Severity string

const (
	SeverityNone     Severity = "None"
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// Lesion-count thresholds driving the severity tiers. Severity is a pure
// step function of the box count; per-box confidence plays no role.
const (
	severeLesionCount   = 7
	moderateLesionCount = 3
)

// SeverityForCount maps a lesion count to its severity tier.
func SeverityForCount(lesionCount int) Severity {
	switch {
	case lesionCount >= severeLesionCount:
		return SeveritySevere
	case lesionCount >= moderateLesionCount:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

// Guidance is the agronomic payload attached to a (disease, severity) pair.
type Guidance struct {
	Symptoms   []string
	Treatment  []string
	Prevention []string
}

// FallbackGuidance is substituted when a (disease, severity) pair has no
// knowledge-base entry. Absence is data, not an error.
var FallbackGuidance = Guidance{
	Symptoms:   []string{"Information not available"},
	Treatment:  []string{"Consult agriculture expert"},
	Prevention: []string{"General crop care recommended"},
}

// HealthyDisease is the label emitted when the model detects nothing.
const HealthyDisease = "Healthy"

// knowledgeBase maps disease name -> severity tier -> guidance. The
// disease keys MUST match the class-name table embedded in the model
// artifact (after normalization); a mismatch degrades to
// FallbackGuidance, never a hard failure. "Healthy" carries only the
// None tier.
var knowledgeBase = map[string]map[Severity]Guidance{
	"Blight": {
		SeverityMild: {
			Symptoms: []string{
				"Yellow-orange stripes on leaf blades",
				"V-shaped lesions from leaf tips",
			},
			Treatment: []string{
				"Remove infected leaves",
				"Avoid excessive nitrogen fertilizer",
			},
			Prevention: blightPrevention,
		},
		SeverityModerate: {
			Symptoms: []string{
				"Yellow-orange stripes on leaf blades",
				"Leaves wilt and roll up",
				"V-shaped lesions from leaf tips",
			},
			Treatment: []string{
				"Apply copper-based bactericides",
				"Remove infected leaves",
				"Avoid excessive nitrogen fertilizer",
			},
			Prevention: blightPrevention,
		},
		SeveritySevere: {
			Symptoms: []string{
				"Yellow-orange stripes on leaf blades",
				"Leaves wilt and roll up",
				"Creamy bacterial ooze",
				"V-shaped lesions spreading across the canopy",
			},
			Treatment: []string{
				"Apply copper-based bactericides immediately",
				"Remove and destroy heavily infected plants",
				"Drain the field to slow bacterial spread",
			},
			Prevention: blightPrevention,
		},
	},

	"Brown Spot": {
		SeverityMild: {
			Symptoms: []string{
				"Scattered brown circular spots",
				"Yellow halo around lesions",
			},
			Treatment: []string{
				"Improve soil nutrition",
			},
			Prevention: brownSpotPrevention,
		},
		SeverityModerate: {
			Symptoms: []string{
				"Brown circular spots",
				"Yellow halo around lesions",
				"Reduced grain quality",
			},
			Treatment: []string{
				"Apply Mancozeb or Carbendazim",
				"Improve soil nutrition",
			},
			Prevention: brownSpotPrevention,
		},
		SeveritySevere: {
			Symptoms: []string{
				"Dense brown spots merging into blotches",
				"Premature leaf drying",
				"Severely reduced grain quality",
			},
			Treatment: []string{
				"Apply Mancozeb or Carbendazim at recommended dose",
				"Correct potassium and silicon deficiency",
				"Repeat fungicide spray after 10-14 days",
			},
			Prevention: brownSpotPrevention,
		},
	},

	"False Smut": {
		SeverityMild: {
			Symptoms: []string{
				"Few green to yellow smut balls on panicles",
			},
			Treatment: []string{
				"Remove infected panicles",
			},
			Prevention: falseSmutPrevention,
		},
		SeverityModerate: {
			Symptoms: []string{
				"Green to yellow smut balls on panicles",
				"Powdery spores inside balls",
			},
			Treatment: []string{
				"Remove infected panicles",
				"Apply Propiconazole fungicide",
			},
			Prevention: falseSmutPrevention,
		},
		SeveritySevere: {
			Symptoms: []string{
				"Smut balls on most panicles",
				"Powdery spores spreading between hills",
			},
			Treatment: []string{
				"Apply Propiconazole fungicide at booting stage",
				"Remove and burn infected panicles",
				"Avoid field-to-field water flow",
			},
			Prevention: falseSmutPrevention,
		},
	},

	HealthyDisease: {
		SeverityNone: {
			Symptoms:  []string{},
			Treatment: []string{},
			Prevention: []string{
				"Maintain proper irrigation",
				"Balanced fertilizer use",
				"Regular field monitoring",
			},
		},
	},

	"Leaf Smut": {
		SeverityMild: {
			Symptoms: []string{
				"Short black streaks on older leaves",
			},
			Treatment: []string{
				"Remove infected plants",
			},
			Prevention: leafSmutPrevention,
		},
		SeverityModerate: {
			Symptoms: []string{
				"Black streaks on leaves",
				"Reduced photosynthesis",
			},
			Treatment: []string{
				"Apply suitable fungicide",
				"Remove infected plants",
			},
			Prevention: leafSmutPrevention,
		},
		SeveritySevere: {
			Symptoms: []string{
				"Black streaks covering most of the leaf area",
				"Leaf tips dying back",
			},
			Treatment: []string{
				"Apply suitable fungicide at full dose",
				"Remove and destroy infected plants",
			},
			Prevention: leafSmutPrevention,
		},
	},

	"Rice Blast": {
		SeverityMild: {
			Symptoms: []string{
				"Small diamond-shaped lesions",
				"Gray centers with brown margins",
			},
			Treatment: []string{
				"Maintain proper water levels",
			},
			Prevention: riceBlastPrevention,
		},
		SeverityModerate: {
			Symptoms: []string{
				"Diamond-shaped lesions",
				"Gray centers with brown margins",
			},
			Treatment: []string{
				"Spray Tricyclazole",
				"Maintain proper water levels",
			},
			Prevention: riceBlastPrevention,
		},
		SeveritySevere: {
			Symptoms: []string{
				"Large coalescing lesions",
				"Neck blast on panicles",
				"Whole leaves drying out",
			},
			Treatment: []string{
				"Spray Tricyclazole immediately",
				"Split nitrogen applications",
				"Keep the field continuously flooded",
			},
			Prevention: riceBlastPrevention,
		},
	},

	"Stem Rot": {
		SeverityMild: {
			Symptoms: []string{
				"Small black lesions at the water line",
			},
			Treatment: []string{
				"Improve drainage",
			},
			Prevention: stemRotPrevention,
		},
		SeverityModerate: {
			Symptoms: []string{
				"Rotting of stem base",
				"Wilting of plants",
			},
			Treatment: []string{
				"Improve drainage",
				"Apply recommended fungicide",
			},
			Prevention: stemRotPrevention,
		},
		SeveritySevere: {
			Symptoms: []string{
				"Rotting of stem base",
				"Lodging of tillers",
				"Widespread plant wilting",
			},
			Treatment: []string{
				"Drain the field and let the soil dry",
				"Apply recommended fungicide",
				"Burn infected stubble after harvest",
			},
			Prevention: stemRotPrevention,
		},
	},

	"Tungro": {
		SeverityMild: {
			Symptoms: []string{
				"Slight yellow-orange discoloration",
			},
			Treatment: []string{
				"Remove infected plants",
			},
			Prevention: tungroPrevention,
		},
		SeverityModerate: {
			Symptoms: []string{
				"Yellow-orange discoloration",
				"Stunted growth",
			},
			Treatment: []string{
				"Remove infected plants",
				"Control leafhopper vectors",
			},
			Prevention: tungroPrevention,
		},
		SeveritySevere: {
			Symptoms: []string{
				"Pronounced yellow-orange discoloration",
				"Severe stunting across the field",
			},
			Treatment: []string{
				"Rogue out infected hills",
				"Spray insecticide against leafhopper vectors",
				"Consult the local extension office",
			},
			Prevention: tungroPrevention,
		},
	},
}

var (
	blightPrevention = []string{
		"Use certified disease-free seeds",
		"Ensure proper drainage",
		"Practice crop rotation",
	}
	brownSpotPrevention = []string{
		"Balanced fertilization",
		"Seed treatment before planting",
	}
	falseSmutPrevention = []string{
		"Avoid excess nitrogen",
		"Use resistant varieties",
	}
	leafSmutPrevention = []string{
		"Use disease-free seeds",
		"Crop rotation",
	}
	riceBlastPrevention = []string{
		"Use blast-resistant varieties",
		"Avoid excess nitrogen",
	}
	stemRotPrevention = []string{
		"Avoid waterlogging",
		"Balanced fertilization",
	}
	tungroPrevention = []string{
		"Vector control",
		"Use resistant varieties",
	}
)

// Lookup returns the guidance for a (disease, severity) pair, degrading
// to FallbackGuidance when either key is absent. It never fails.
func Lookup(disease string, severity Severity) Guidance {
	tiers, ok := knowledgeBase[disease]
	if !ok {
		return FallbackGuidance
	}
	guidance, ok := tiers[severity]
	if !ok {
		return FallbackGuidance
	}
	return guidance
}

// KnownDiseases returns the disease keys of the knowledge base.
func KnownDiseases() []string {
	names := make([]string, 0, len(knowledgeBase))
	for name := range knowledgeBase {
		names = append(names, name)
	}
	return names
}

// NormalizeDisease canonicalizes a model class name into a knowledge-base
// key: whitespace trimmed, underscores treated as word separators, each
// word title-cased ("rice_blast" -> "Rice Blast", "Brown spot" ->
// "Brown Spot").
func NormalizeDisease(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
