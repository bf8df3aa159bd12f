package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// saltToSodiumMg converts grams of salt to milligrams of sodium
// (rough factor: 1g salt ~ 400mg sodium).
const saltToSodiumMg = 400

// OpenFoodFactsSource queries the OpenFoodFacts product search API for
// per-100g nutriment data.
type OpenFoodFactsSource struct {
	httpClient *http.Client
	baseURL    string
}

// NewOpenFoodFactsSource creates the OpenFoodFacts source.
func NewOpenFoodFactsSource(baseURL string, timeout time.Duration) *OpenFoodFactsSource {
	return &OpenFoodFactsSource{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (s *OpenFoodFactsSource) Name() string {
	return SourceOpenFoodFacts
}

type offSearchResponse struct {
	Products []struct {
		// Nutriment values arrive as numbers or strings depending on
		// the product, hence the untyped map.
		Nutriments map[string]interface{} `json:"nutriments"`
	} `json:"products"`
}

// Lookup returns the first product carrying any of the four macro values.
func (s *OpenFoodFactsSource) Lookup(ctx context.Context, food string) (*Record, error) {
	searchURL := fmt.Sprintf(
		"%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=6",
		s.baseURL, url.QueryEscape(food))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "platewise/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var search offSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, p := range search.Products {
		if len(p.Nutriments) == 0 {
			continue
		}

		calories, hasCal := nutrimentValue(p.Nutriments, "energy-kcal_100g", "energy_100g")
		protein, hasProt := nutrimentValue(p.Nutriments, "proteins_100g")
		carbs, hasCarbs := nutrimentValue(p.Nutriments, "carbohydrates_100g")
		fat, hasFat := nutrimentValue(p.Nutriments, "fat_100g")

		if !hasCal && !hasProt && !hasCarbs && !hasFat {
			continue
		}

		fiber, _ := nutrimentValue(p.Nutriments, "fiber_100g")
		sugar, _ := nutrimentValue(p.Nutriments, "sugars_100g")
		salt, _ := nutrimentValue(p.Nutriments, "salt_100g")

		return &Record{
			Calories: calories,
			ProteinG: protein,
			CarbsG:   carbs,
			FatG:     fat,
			FiberG:   fiber,
			SugarG:   sugar,
			SodiumMg: salt * saltToSodiumMg,
			Source:   SourceOpenFoodFacts,
		}, nil
	}

	return nil, nil
}

// nutrimentValue extracts the first present key as a float, tolerating
// string-typed values.
func nutrimentValue(nutriments map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := nutriments[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
