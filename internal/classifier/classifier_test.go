package classifier

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefault(t *testing.T) *Model {
	t.Helper()
	m, err := Load("", "")
	require.NoError(t, err)
	return m
}

func TestLoad_EmbeddedDefaults(t *testing.T) {
	m := loadDefault(t)
	assert.Equal(t, 3, m.NumFeatures())
}

func TestPredict_KnownVectors(t *testing.T) {
	m := loadDefault(t)

	tests := []struct {
		name     string
		features []float64
		want     string
	}{
		// Degraded-mode defaults: streetlights=10, accidents=3, distance=2000.
		{"all fallbacks", []float64{10, 3, 2000}, "Safe"},
		{"well lit near police", []float64{30, 1, 200}, "Safe"},
		{"dark and accident prone", []float64{2, 9, 1900}, "Unsafe"},
		{"mixed signals", []float64{15, 8, 500}, "Moderate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := m.Predict(tt.features)
			require.NoError(t, err)
			label, err := m.Decode(code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestPredict_MalformedVector(t *testing.T) {
	m := loadDefault(t)

	_, err := m.Predict([]float64{1, 2})
	assert.Error(t, err)

	_, err = m.Predict(nil)
	assert.Error(t, err)

	_, err = m.Predict([]float64{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestDecode_OutOfRange(t *testing.T) {
	m := loadDefault(t)

	_, err := m.Decode(-1)
	assert.Error(t, err)

	_, err = m.Decode(99)
	assert.Error(t, err)
}

func TestLoad_FromFiles(t *testing.T) {
	dir := t.TempDir()
	forest := filepath.Join(dir, "forest.json")
	labels := filepath.Join(dir, "labels.json")

	require.NoError(t, os.WriteFile(forest, []byte(`{
		"num_features": 3,
		"trees": [{"nodes": [{"feature": -1, "class": 1}]}]
	}`), 0644))
	require.NoError(t, os.WriteFile(labels, []byte(`{"classes": ["Moderate", "Safe", "Unsafe"]}`), 0644))

	m, err := Load(forest, labels)
	require.NoError(t, err)

	code, err := m.Predict([]float64{0, 0, 0})
	require.NoError(t, err)
	label, err := m.Decode(code)
	require.NoError(t, err)
	assert.Equal(t, "Safe", label)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), "")
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedArtifacts(t *testing.T) {
	dir := t.TempDir()

	writeArtifacts := func(forest, labels string) (string, string) {
		f := filepath.Join(dir, "f.json")
		l := filepath.Join(dir, "l.json")
		require.NoError(t, os.WriteFile(f, []byte(forest), 0644))
		require.NoError(t, os.WriteFile(l, []byte(labels), 0644))
		return f, l
	}

	// Empty forest.
	f, l := writeArtifacts(`{"num_features": 3, "trees": []}`, `{"classes": ["a"]}`)
	_, err := Load(f, l)
	assert.Error(t, err)

	// Class code outside encoder range.
	f, l = writeArtifacts(
		`{"num_features": 3, "trees": [{"nodes": [{"feature": -1, "class": 7}]}]}`,
		`{"classes": ["a", "b"]}`,
	)
	_, err = Load(f, l)
	assert.Error(t, err)

	// Child index out of range.
	f, l = writeArtifacts(
		`{"num_features": 3, "trees": [{"nodes": [{"feature": 0, "threshold": 1, "left": 5, "right": 0}]}]}`,
		`{"classes": ["a"]}`,
	)
	_, err = Load(f, l)
	assert.Error(t, err)

	// Not JSON at all.
	f, l = writeArtifacts(`{{{`, `{"classes": ["a"]}`)
	_, err = Load(f, l)
	assert.Error(t, err)
}

func TestPredict_ConcurrentUse(t *testing.T) {
	m := loadDefault(t)

	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				code, err := m.Predict([]float64{10, 3, 2000})
				assert.NoError(t, err)
				label, err := m.Decode(code)
				assert.NoError(t, err)
				assert.Equal(t, "Safe", label)
			}
		}()
	}
	wg.Wait()
}
