package inference

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// modelClassTable mirrors the class names embedded in the model
// artifact (data.yaml). The knowledge base must cover exactly these
// after normalization.
var modelClassTable = []string{
	"Blight", "Brown spot", "False Smut", "Healthy",
	"Leaf Smut", "Rice blast", "Stem Rot", "Tungro",
}

func TestKnowledgeBaseMatchesModelClassTable(t *testing.T) {
	known := map[string]bool{}
	for _, d := range KnownDiseases() {
		known[d] = true
	}

	require.Len(t, known, len(modelClassTable))
	for _, class := range modelClassTable {
		require.True(t, known[NormalizeDisease(class)], "missing knowledge for class %q", class)
	}
}

func TestSeverityForCountBoundaries(t *testing.T) {
	testCases := []struct {
		count int
		want  Severity
	}{
		{0, SeverityMild},
		{1, SeverityMild},
		{2, SeverityMild},
		{3, SeverityModerate},
		{4, SeverityModerate},
		{6, SeverityModerate},
		{7, SeveritySevere},
		{8, SeveritySevere},
		{100, SeveritySevere},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.want, SeverityForCount(tc.count), "count=%d", tc.count)
	}
}

func TestLookupFallbacks(t *testing.T) {
	// Unknown disease
	require.Equal(t, FallbackGuidance, Lookup("Moon Rot", SeverityMild))
	// Known disease, missing tier
	require.Equal(t, FallbackGuidance, Lookup("Blight", SeverityNone))
	require.Equal(t, FallbackGuidance, Lookup(HealthyDisease, SeveritySevere))
}

func TestLookupKnownPairsNeverFallBack(t *testing.T) {
	for _, disease := range KnownDiseases() {
		if disease == HealthyDisease {
			g := Lookup(disease, SeverityNone)
			require.Empty(t, g.Symptoms)
			require.Empty(t, g.Treatment)
			require.NotEmpty(t, g.Prevention)
			continue
		}
		for _, severity := range []Severity{SeverityMild, SeverityModerate, SeveritySevere} {
			g := Lookup(disease, severity)
			require.NotEqual(t, FallbackGuidance, g, "%s/%s fell back", disease, severity)
			require.NotEmpty(t, g.Symptoms, "%s/%s has no symptoms", disease, severity)
			require.NotEmpty(t, g.Treatment, "%s/%s has no treatment", disease, severity)
			require.NotEmpty(t, g.Prevention, "%s/%s has no prevention", disease, severity)
		}
	}
}

func TestNormalizeDisease(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"rice_blast", "Rice Blast"},
		{"Brown spot", "Brown Spot"},
		{"  blight  ", "Blight"},
		{"TUNGRO", "Tungro"},
		{"false_smut", "False Smut"},
		{"", ""},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.want, NormalizeDisease(tc.in), "input %q", tc.in)
	}
}
