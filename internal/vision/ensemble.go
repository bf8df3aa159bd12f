package vision

import (
	"context"

	"go.uber.org/zap"
)

// Ensemble runs every classifier in the roster against every image variation.
type Ensemble struct {
	classifiers []Classifier
	logger      *zap.Logger
}

// NewEnsemble creates an ensemble over the given classifier roster.
func NewEnsemble(classifiers []Classifier, logger *zap.Logger) *Ensemble {
	return &Ensemble{classifiers: classifiers, logger: logger}
}

// Size returns the number of classifiers in the roster.
func (e *Ensemble) Size() int {
	return len(e.classifiers)
}

// Run decodes the image, builds the fixed variations and collects the raw
// predictions of every (classifier, variation) pair. A failed pair is logged
// and skipped; the call fails only when decoding fails or no pair produced
// any prediction at all.
func (e *Ensemble) Run(ctx context.Context, imageBytes []byte) ([]Prediction, error) {
	img, err := Decode(imageBytes)
	if err != nil {
		return nil, err
	}

	variations := Variations(img)

	var predictions []Prediction
	for _, c := range e.classifiers {
		for _, v := range variations {
			scores, err := c.Predict(ctx, v.Image)
			if err != nil {
				e.logger.Warn("classifier run failed",
					zap.String("model", c.ID()),
					zap.String("variation", v.ID),
					zap.Error(err))
				continue
			}
			for _, s := range scores {
				predictions = append(predictions, Prediction{
					ModelID:     c.ID(),
					VariationID: v.ID,
					Label:       s.Label,
					Confidence:  s.Confidence,
					Weight:      c.Weight(),
				})
			}
		}
	}

	if len(predictions) == 0 {
		return nil, ErrClassification
	}

	return predictions, nil
}
