package nutrition

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Regexes for scraping macro figures out of unstructured search-result text.
var (
	caloriesRe = regexp.MustCompile(`(?i)(\d+)\s*(?:calories|kcal|cal)`)
	proteinRe  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g?\s*protein`)
	carbsRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g?\s*(?:carb|carbohydrate)`)
	fatRe      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*g?\s*(?:fat|lipid)`)
)

// WebSearchSource is a best-effort source that pattern-matches nutrition
// figures out of a web search results page. It only reports a result when at
// least two of the four macro fields could be extracted; the rest stay zero.
type WebSearchSource struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewWebSearchSource creates the web search extraction source.
func NewWebSearchSource(baseURL string, timeout time.Duration) *WebSearchSource {
	return &WebSearchSource{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	}
}

func (s *WebSearchSource) Name() string {
	return SourceWebSearch
}

func (s *WebSearchSource) Lookup(ctx context.Context, food string) (*Record, error) {
	query := fmt.Sprintf("%s nutrition facts calories protein carbs fat per 100g",
		strings.ToLower(strings.TrimSpace(food)))
	searchURL := s.baseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error: status=%d", resp.StatusCode)
	}

	// Bounded read: the useful figures sit near the top of the page.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return ExtractRecord(string(body)), nil
}

// ExtractRecord pulls macro figures out of free text. Returns nil unless at
// least two of calories/protein/carbs/fat were found.
func ExtractRecord(text string) *Record {
	rec := &Record{Source: SourceWebSearch}
	found := 0

	if m := caloriesRe.FindStringSubmatch(text); m != nil {
		rec.Calories, _ = strconv.ParseFloat(m[1], 64)
		found++
	}
	if m := proteinRe.FindStringSubmatch(text); m != nil {
		rec.ProteinG, _ = strconv.ParseFloat(m[1], 64)
		found++
	}
	if m := carbsRe.FindStringSubmatch(text); m != nil {
		rec.CarbsG, _ = strconv.ParseFloat(m[1], 64)
		found++
	}
	if m := fatRe.FindStringSubmatch(text); m != nil {
		rec.FatG, _ = strconv.ParseFloat(m[1], 64)
		found++
	}

	if found < 2 {
		return nil
	}
	return rec
}
