package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/disintegration/imaging"
)

// RekognitionClassifier predicts labels through AWS Rekognition DetectLabels.
type RekognitionClassifier struct {
	client *rekognition.Client
	weight float64
	topK   int
}

// NewRekognitionClassifier builds a Rekognition-backed classifier using the
// default AWS credential chain.
func NewRekognitionClassifier(ctx context.Context, region string, weight float64, topK int) (*RekognitionClassifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &RekognitionClassifier{
		client: rekognition.NewFromConfig(cfg),
		weight: weight,
		topK:   topK,
	}, nil
}

func (c *RekognitionClassifier) ID() string {
	return "rekognition"
}

func (c *RekognitionClassifier) Weight() float64 {
	return c.weight
}

// Predict encodes the image as JPEG and asks Rekognition for labels.
// Rekognition confidences are 0..100 and are scaled down to 0..1.
func (c *RekognitionClassifier) Predict(ctx context.Context, img image.Image) ([]LabelScore, error) {
	// Rekognition caps request payloads at 5MB; a bounded resize keeps
	// JPEG output well under that for any sane input.
	if b := img.Bounds(); b.Dx() > 1280 || b.Dy() > 1280 {
		img = imaging.Fit(img, 1280, 1280, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	out, err := c.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: buf.Bytes()},
		MaxLabels:     aws.Int32(int32(c.topK)),
		MinConfidence: aws.Float32(10),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition DetectLabels failed: %w", err)
	}

	scores := make([]LabelScore, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil || l.Confidence == nil {
			continue
		}
		scores = append(scores, LabelScore{
			Label:      *l.Name,
			Confidence: float64(*l.Confidence) / 100.0,
		})
	}
	return scores, nil
}
