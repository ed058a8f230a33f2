// Package classification runs cleaned text through the configured radicalism models.
package classification

// Vectorizer turns text into a fixed-length embedding. Text with no known words
// yields the zero vector.
type Vectorizer interface {
	Vectorize(text string) []float64
	Dimension() int
}

// Classifier is one trained model. PredictProba returns [p_non_radical, p_radical].
type Classifier interface {
	Predict(vec []float64) (string, error)
	PredictProba(vec []float64) ([]float64, error)
}

// Prediction is one model's verdict
type Prediction struct {
	Model          string  `json:"model"`
	Label          string  `json:"label"`
	ProbRadical    float64 `json:"probability_radikal"`
	ProbNonRadical float64 `json:"probability_non_radikal"`
	Unclassifiable bool    `json:"unclassifiable,omitempty"`
}

// Outcome collects per-model predictions and failures for one text
type Outcome struct {
	Results        []Prediction     `json:"results"`
	Errors         map[string]error `json:"-"`
	Unclassifiable bool             `json:"unclassifiable"`
}
