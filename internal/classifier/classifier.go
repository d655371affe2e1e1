// Package classifier loads the pre-fit safety label model and its paired
// label encoder. Both artifacts are immutable after Load and safe for
// unrestricted concurrent prediction.
package classifier

import (
	_ "embed"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

//go:embed artifacts/forest.json
var defaultForest []byte

//go:embed artifacts/labels.json
var defaultLabels []byte

// node is one decision node in a tree. Internal nodes route on
// features[Feature] < Threshold; a Feature of -1 marks a leaf carrying a
// label class code.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Class     int     `json:"class"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

type forestArtifact struct {
	NumFeatures int    `json:"num_features"`
	Trees       []tree `json:"trees"`
}

type labelArtifact struct {
	Classes []string `json:"classes"`
}

// Model is the loaded forest plus its label encoder.
type Model struct {
	trees       []tree
	numFeatures int
	labels      []string
}

// Load reads the forest and label artifacts from the given paths. Empty
// paths fall back to the embedded defaults, so the binary runs without any
// deployed model files.
func Load(forestPath, labelsPath string) (*Model, error) {
	forestRaw := defaultForest
	if forestPath != "" {
		b, err := os.ReadFile(forestPath)
		if err != nil {
			return nil, eris.Wrapf(err, "classifier: read forest %s", forestPath)
		}
		forestRaw = b
	}

	labelsRaw := defaultLabels
	if labelsPath != "" {
		b, err := os.ReadFile(labelsPath)
		if err != nil {
			return nil, eris.Wrapf(err, "classifier: read labels %s", labelsPath)
		}
		labelsRaw = b
	}

	var fa forestArtifact
	if err := json.Unmarshal(forestRaw, &fa); err != nil {
		return nil, eris.Wrap(err, "classifier: parse forest")
	}
	var la labelArtifact
	if err := json.Unmarshal(labelsRaw, &la); err != nil {
		return nil, eris.Wrap(err, "classifier: parse labels")
	}

	m := &Model{trees: fa.Trees, numFeatures: fa.NumFeatures, labels: la.Classes}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) validate() error {
	if m.numFeatures <= 0 {
		return eris.New("classifier: num_features must be positive")
	}
	if len(m.trees) == 0 {
		return eris.New("classifier: forest has no trees")
	}
	if len(m.labels) == 0 {
		return eris.New("classifier: label encoder has no classes")
	}
	for ti, t := range m.trees {
		if len(t.Nodes) == 0 {
			return eris.Errorf("classifier: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				if n.Class < 0 || n.Class >= len(m.labels) {
					return eris.Errorf("classifier: tree %d node %d has class %d outside encoder range", ti, ni, n.Class)
				}
				continue
			}
			if n.Feature >= m.numFeatures {
				return eris.Errorf("classifier: tree %d node %d routes on unknown feature %d", ti, ni, n.Feature)
			}
			if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
				return eris.Errorf("classifier: tree %d node %d has child index out of range", ti, ni)
			}
		}
	}
	return nil
}

// NumFeatures reports the feature vector length the model expects.
func (m *Model) NumFeatures() int {
	return m.numFeatures
}

// Predict runs the feature vector through every tree and returns the
// majority-vote label code. Ties break toward the lowest code so the result
// is deterministic. A malformed vector is an error, not a default.
func (m *Model) Predict(features []float64) (int, error) {
	if len(features) != m.numFeatures {
		return 0, eris.Errorf("classifier: expected %d features, got %d", m.numFeatures, len(features))
	}

	votes := make([]int, len(m.labels))
	for _, t := range m.trees {
		votes[t.predict(features)]++
	}

	best := 0
	for code, n := range votes {
		if n > votes[best] {
			best = code
		}
	}
	return best, nil
}

func (t tree) predict(features []float64) int {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Class
		}
		if features[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Decode maps a label code back to its label string.
func (m *Model) Decode(code int) (string, error) {
	if code < 0 || code >= len(m.labels) {
		return "", eris.Errorf("classifier: label code %d outside encoder range", code)
	}
	return m.labels[code], nil
}
