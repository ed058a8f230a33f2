package classification

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/killallgit/waskita-api/internal/models"
)

// minVariance keeps a zero-variance feature from dividing by zero
const minVariance = 1e-9

// GaussianNB is a Gaussian naive Bayes model exported as JSON
type GaussianNB struct {
	Classes    []string    `json:"classes"`
	ClassPrior []float64   `json:"class_prior"`
	Theta      [][]float64 `json:"theta"`
	Var        [][]float64 `json:"var"`

	radical int
	nonRad  int
}

// LoadGaussianNB reads and validates a model file
func LoadGaussianNB(path string) (*GaussianNB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	var m GaussianNB
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding model %s: %w", path, err)
	}
	if err := m.init(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

// NewGaussianNB builds a model from its parameters
func NewGaussianNB(classes []string, prior []float64, theta, variance [][]float64) (*GaussianNB, error) {
	m := &GaussianNB{Classes: classes, ClassPrior: prior, Theta: theta, Var: variance}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GaussianNB) init() error {
	k := len(m.Classes)
	if k != 2 {
		return fmt.Errorf("expected 2 classes, got %d", k)
	}
	if len(m.ClassPrior) != k || len(m.Theta) != k || len(m.Var) != k {
		return fmt.Errorf("class_prior, theta and var must each have %d rows", k)
	}
	dim := len(m.Theta[0])
	for i := 0; i < k; i++ {
		if len(m.Theta[i]) != dim || len(m.Var[i]) != dim {
			return fmt.Errorf("class %d has inconsistent feature count", i)
		}
	}

	m.radical, m.nonRad = -1, -1
	for i, c := range m.Classes {
		if normalizeLabel(c) == models.LabelRadical {
			m.radical = i
		} else {
			m.nonRad = i
		}
	}
	if m.radical < 0 || m.nonRad < 0 {
		return fmt.Errorf("classes %v must include one radical and one non-radical label", m.Classes)
	}
	return nil
}

// Dimension returns the expected feature count
func (m *GaussianNB) Dimension() int {
	return len(m.Theta[0])
}

// Predict returns the most likely label
func (m *GaussianNB) Predict(vec []float64) (string, error) {
	p, err := m.PredictProba(vec)
	if err != nil {
		return "", err
	}
	if p[1] > p[0] {
		return models.LabelRadical, nil
	}
	return models.LabelNonRadical, nil
}

// PredictProba returns [p_non_radical, p_radical]
func (m *GaussianNB) PredictProba(vec []float64) ([]float64, error) {
	if len(vec) != m.Dimension() {
		return nil, fmt.Errorf("vector has %d features, model expects %d", len(vec), m.Dimension())
	}

	joint := make([]float64, len(m.Classes))
	for c := range m.Classes {
		ll := math.Log(m.ClassPrior[c])
		for j, x := range vec {
			v := m.Var[c][j]
			if v < minVariance {
				v = minVariance
			}
			d := x - m.Theta[c][j]
			ll += -0.5*math.Log(2*math.Pi*v) - d*d/(2*v)
		}
		joint[c] = ll
	}

	maxLL := math.Max(joint[0], joint[1])
	var sum float64
	for i := range joint {
		joint[i] = math.Exp(joint[i] - maxLL)
		sum += joint[i]
	}
	return []float64{joint[m.nonRad] / sum, joint[m.radical] / sum}, nil
}

// normalizeLabel maps model class names such as "Radikal" or "Non-Radikal" onto stored labels
func normalizeLabel(class string) string {
	if strings.EqualFold(strings.TrimSpace(class), models.LabelRadical) {
		return models.LabelRadical
	}
	return models.LabelNonRadical
}
