package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

// InferenceClassifier talks to a local HTTP inference engine serving a
// pretrained image model. One instance per engine in the roster.
type InferenceClassifier struct {
	httpClient *http.Client
	id         string
	baseURL    string
	weight     float64
	resize     int
	topK       int
}

// NewInferenceClassifier creates a classifier backed by the inference engine
// at baseURL. resize is the square input size the model expects (224 when 0).
func NewInferenceClassifier(id, baseURL string, weight float64, resize, topK int, timeout time.Duration) *InferenceClassifier {
	if resize <= 0 {
		resize = 224
	}
	return &InferenceClassifier{
		httpClient: &http.Client{Timeout: timeout},
		id:         id,
		baseURL:    baseURL,
		weight:     weight,
		resize:     resize,
		topK:       topK,
	}
}

func (c *InferenceClassifier) ID() string {
	return c.id
}

func (c *InferenceClassifier) Weight() float64 {
	return c.weight
}

type classifyRequest struct {
	Image string `json:"image"` // base64 JPEG
	TopK  int    `json:"top_k"`
}

type classifyResponse struct {
	Predictions []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"predictions"`
	Error string `json:"error,omitempty"`
}

// Predict resizes the image to the model's input size, ships it to the
// engine's /v1/classify endpoint and returns the top-K labels.
func (c *InferenceClassifier) Predict(ctx context.Context, img image.Image) ([]LabelScore, error) {
	resized := imaging.Resize(img, c.resize, c.resize, imaging.Lanczos)

	var imgBuf bytes.Buffer
	if err := imaging.Encode(&imgBuf, resized, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	reqBody, err := json.Marshal(classifyRequest{
		Image: base64.StdEncoding.EncodeToString(imgBuf.Bytes()),
		TopK:  c.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("inference engine error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var cr classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if cr.Error != "" {
		return nil, fmt.Errorf("inference engine error: %s", cr.Error)
	}

	scores := make([]LabelScore, 0, len(cr.Predictions))
	for _, p := range cr.Predictions {
		scores = append(scores, LabelScore{Label: p.Label, Confidence: p.Confidence})
	}
	return scores, nil
}
