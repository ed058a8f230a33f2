package classification

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/killallgit/waskita-api/internal/metrics"
	"github.com/killallgit/waskita-api/internal/models"
	"golang.org/x/sync/errgroup"
)

// Classify vectorizes text once and runs every classifier on the vector concurrently.
// A failing model is reported in Outcome.Errors without affecting the others. When the
// text has no known words every model gets a non-radical verdict at full confidence
// and no model is invoked.
func Classify(ctx context.Context, vectorizer Vectorizer, text string, classifiers map[string]Classifier) *Outcome {
	out := &Outcome{Errors: make(map[string]error)}
	if len(classifiers) == 0 {
		return out
	}

	vec := vectorizer.Vectorize(text)
	if IsZero(vec) {
		out.Unclassifiable = true
		for _, name := range sortedNames(classifiers) {
			out.Results = append(out.Results, Prediction{
				Model:          name,
				Label:          models.LabelNonRadical,
				ProbRadical:    0,
				ProbNonRadical: 1,
				Unclassifiable: true,
			})
		}
		metrics.Unclassifiable.Inc()
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name, clf := range classifiers {
		g.Go(func() error {
			p, err := predict(gctx, name, clf, vec)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errors[name] = err
				metrics.ClassificationFailures.WithLabelValues(name).Inc()
				return nil
			}
			out.Results = append(out.Results, *p)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(out.Results, func(i, j int) bool { return out.Results[i].Model < out.Results[j].Model })
	return out
}

func predict(ctx context.Context, name string, clf Classifier, vec []float64) (p *Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model %s panicked: %v", name, r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label, err := clf.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("model %s predict: %w", name, err)
	}
	proba, err := clf.PredictProba(vec)
	if err != nil {
		return nil, fmt.Errorf("model %s predict_proba: %w", name, err)
	}
	if len(proba) != 2 {
		return nil, fmt.Errorf("model %s returned %d probabilities, want 2", name, len(proba))
	}
	return &Prediction{
		Model:          name,
		Label:          normalizeLabel(label),
		ProbNonRadical: proba[0],
		ProbRadical:    proba[1],
	}, nil
}

func sortedNames(classifiers map[string]Classifier) []string {
	names := make([]string, 0, len(classifiers))
	for name := range classifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
