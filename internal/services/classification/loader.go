package classification

import (
	"fmt"

	"github.com/killallgit/waskita-api/pkg/logger"
)

// LoadModels loads the embedding table and every named Gaussian NB model file.
// Model dimensions must match the embedding size.
func LoadModels(word2vecPath string, modelPaths map[string]string, log logger.Logger) (*WordVectors, map[string]Classifier, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if len(modelPaths) == 0 {
		return nil, nil, fmt.Errorf("no classifier models configured")
	}

	wv, err := LoadWordVectors(word2vecPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Loaded word vectors",
		logger.String("path", word2vecPath),
		logger.Int("words", wv.Len()),
		logger.Int("dimension", wv.Dimension()))

	classifiers := make(map[string]Classifier, len(modelPaths))
	for name, path := range modelPaths {
		m, err := LoadGaussianNB(path)
		if err != nil {
			return nil, nil, fmt.Errorf("loading model %s: %w", name, err)
		}
		if m.Dimension() != wv.Dimension() {
			return nil, nil, fmt.Errorf("model %s expects %d features, word vectors have %d", name, m.Dimension(), wv.Dimension())
		}
		classifiers[name] = m
		log.Info("Loaded classifier", logger.String("model", name), logger.String("path", path))
	}
	return wv, classifiers, nil
}
