package history

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"riceguard/models"
)

func testResult(disease string) models.DetectionResult {
	return models.DetectionResult{
		Disease:    disease,
		Confidence: 42.0,
		Severity:   "Mild",
		Symptoms:   []string{"spots"},
		Treatment:  []string{"spray"},
		Prevention: []string{"rotate crops"},
	}
}

func TestAppendIsNewestFirst(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "history.json"))

	require.NoError(t, l.Append(testResult("first")))
	require.NoError(t, l.Append(testResult("second")))
	require.NoError(t, l.Append(testResult("third")))

	records, err := l.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "third", records[0].Disease)
	require.Equal(t, "second", records[1].Disease)
	require.Equal(t, "first", records[2].Disease)
}

func TestListOnMissingFileIsEmpty(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "history.json"))

	records, err := l.List()
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestLogSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	l := NewLog(path)
	require.NoError(t, l.Append(testResult("blight")))

	reloaded := NewLog(path)
	records, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "blight", records[0].Disease)
	require.Equal(t, []string{"spray"}, records[0].Treatment)
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "history.json"))

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			if err := l.Append(testResult(fmt.Sprintf("disease-%d", i))); err != nil {
				t.Errorf("append %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	records, err := l.List()
	require.NoError(t, err)
	require.Len(t, records, writers)
}
