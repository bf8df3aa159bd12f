// Package vision runs a roster of image classifiers against fixed variations
// of an input photo and collects their raw predictions for ranking.
package vision

import (
	"context"
	"errors"
	"image"
)

// ErrImageDecode indicates the input bytes could not be decoded as an image.
// Fatal to the request.
var ErrImageDecode = errors.New("image could not be decoded")

// ErrClassification indicates no classifier produced a single prediction.
// Fatal to the request.
var ErrClassification = errors.New("no predictions obtained from any classifier")

// LabelScore is one raw class prediction from a single classifier run.
type LabelScore struct {
	Label      string
	Confidence float64 // 0..1
}

// Prediction ties a raw class prediction to the classifier and image
// variation that produced it.
type Prediction struct {
	ModelID     string
	VariationID string
	Label       string
	Confidence  float64 // 0..1
	Weight      float64 // relative model weight, 0..1
}

// Classifier is one member of the ensemble roster. Implementations own their
// preprocessing; the ensemble only hands them a decoded image.
type Classifier interface {
	ID() string
	Weight() float64
	Predict(ctx context.Context, img image.Image) ([]LabelScore, error)
}
