package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// USDASource queries the USDA FoodData Central API: a keyword search picks
// the best matching food, a detail call fetches its nutrient table.
// Requires an API key; without one the source reports no result.
type USDASource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewUSDASource creates the FoodData Central source.
func NewUSDASource(baseURL, apiKey string, timeout time.Duration) *USDASource {
	return &USDASource{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (s *USDASource) Name() string {
	return SourceUSDA
}

type usdaSearchResponse struct {
	Foods []struct {
		FdcID int64 `json:"fdcId"`
	} `json:"foods"`
}

type usdaFoodResponse struct {
	FoodNutrients []struct {
		Nutrient struct {
			Name string `json:"name"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

// Lookup searches FoodData Central and maps the first hit's nutrients into a
// Record. Skipped entirely when no API key is configured.
func (s *USDASource) Lookup(ctx context.Context, food string) (*Record, error) {
	if s.apiKey == "" {
		return nil, nil
	}

	searchURL := fmt.Sprintf("%s/foods/search?query=%s&pageSize=5&api_key=%s",
		s.baseURL, url.QueryEscape(food), url.QueryEscape(s.apiKey))

	var search usdaSearchResponse
	if err := s.getJSON(ctx, searchURL, &search); err != nil {
		return nil, fmt.Errorf("usda search failed: %w", err)
	}
	if len(search.Foods) == 0 {
		return nil, nil
	}

	detailURL := fmt.Sprintf("%s/food/%d?api_key=%s",
		s.baseURL, search.Foods[0].FdcID, url.QueryEscape(s.apiKey))

	var detail usdaFoodResponse
	if err := s.getJSON(ctx, detailURL, &detail); err != nil {
		return nil, fmt.Errorf("usda detail failed: %w", err)
	}

	rec := &Record{Source: SourceUSDA}
	for _, n := range detail.FoodNutrients {
		name := strings.ToLower(n.Nutrient.Name)
		switch {
		case strings.Contains(name, "energy") && strings.Contains(name, "kcal"):
			rec.Calories = n.Amount
		case strings.Contains(name, "protein"):
			rec.ProteinG = n.Amount
		case strings.Contains(name, "total lipid") || strings.Contains(name, "fat"):
			rec.FatG = n.Amount
		case strings.Contains(name, "carbohydrate"):
			rec.CarbsG = n.Amount
		case strings.Contains(name, "fiber"):
			rec.FiberG = n.Amount
		case strings.Contains(name, "sugar"):
			rec.SugarG = n.Amount
		case strings.Contains(name, "sodium"):
			rec.SodiumMg = n.Amount
		}
	}
	return rec, nil
}

func (s *USDASource) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
