package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClassifier struct {
	id     string
	weight float64
	scores []LabelScore
	err    error
}

func (s *stubClassifier) ID() string      { return s.id }
func (s *stubClassifier) Weight() float64 { return s.weight }
func (s *stubClassifier) Predict(ctx context.Context, img image.Image) ([]LabelScore, error) {
	return s.scores, s.err
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageDecode)
}

func TestVariationsProducesFourFixedRenditions(t *testing.T) {
	img, err := Decode(testImage(t))
	require.NoError(t, err)

	variations := Variations(img)
	require.Len(t, variations, 4)

	ids := make([]string, 0, 4)
	for _, v := range variations {
		require.NotNil(t, v.Image)
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"original", "contrast", "brightness", "sharp"}, ids)
}

func TestEnsembleRunCollectsEveryPair(t *testing.T) {
	ensemble := NewEnsemble([]Classifier{
		&stubClassifier{id: "a", weight: 0.4, scores: []LabelScore{{Label: "pizza", Confidence: 0.9}, {Label: "bread", Confidence: 0.1}}},
		&stubClassifier{id: "b", weight: 0.35, scores: []LabelScore{{Label: "pizza", Confidence: 0.8}}},
	}, zap.NewNop())

	predictions, err := ensemble.Run(context.Background(), testImage(t))
	require.NoError(t, err)

	// 2 scores x 4 variations + 1 score x 4 variations.
	assert.Len(t, predictions, 12)

	for _, p := range predictions {
		assert.NotEmpty(t, p.ModelID)
		assert.NotEmpty(t, p.VariationID)
		assert.Greater(t, p.Weight, 0.0)
	}
}

func TestEnsembleSkipsFailingClassifier(t *testing.T) {
	ensemble := NewEnsemble([]Classifier{
		&stubClassifier{id: "broken", weight: 0.5, err: errors.New("model unavailable")},
		&stubClassifier{id: "ok", weight: 0.5, scores: []LabelScore{{Label: "sushi", Confidence: 0.7}}},
	}, zap.NewNop())

	predictions, err := ensemble.Run(context.Background(), testImage(t))
	require.NoError(t, err)
	assert.Len(t, predictions, 4)
	for _, p := range predictions {
		assert.Equal(t, "ok", p.ModelID)
	}
}

func TestEnsembleFailsWhenEveryClassifierFails(t *testing.T) {
	ensemble := NewEnsemble([]Classifier{
		&stubClassifier{id: "a", weight: 0.5, err: errors.New("down")},
		&stubClassifier{id: "b", weight: 0.5, err: errors.New("down")},
	}, zap.NewNop())

	_, err := ensemble.Run(context.Background(), testImage(t))
	assert.ErrorIs(t, err, ErrClassification)
}

func TestEnsembleFailsOnUndecodableImage(t *testing.T) {
	ensemble := NewEnsemble([]Classifier{
		&stubClassifier{id: "a", weight: 0.5, scores: []LabelScore{{Label: "pizza", Confidence: 0.9}}},
	}, zap.NewNop())

	_, err := ensemble.Run(context.Background(), []byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrImageDecode)
}
