// Package usda searches branded foods in USDA FoodData Central.
package usda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.nal.usda.gov"

var ErrMissingAPIKey = errors.New("missing USDA API key")

// Food is a branded food with nutrients per 100 g, keyed like meal level1
// nutrients.
type Food struct {
	FDCID         int64
	Barcode       string
	Name          string
	Brand         string
	ServingAmount float64
	ServingUnit   string
	Per100        map[string]float64
}

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Branded-food search results report nutrients per 100 g in these units.
var nutrientKeys = map[string]string{
	"energy":                         "calories",
	"protein":                        "protein",
	"total lipid (fat)":              "total_fat",
	"carbohydrate, by difference":    "total_carbs",
	"fiber, total dietary":           "fiber",
	"sugars, total including nlea":   "sugars",
	"sugars, total":                  "sugars",
	"sodium, na":                     "sodium",
	"calcium, ca":                    "calcium",
	"vitamin c, total ascorbic acid": "vitamin_c",
	"vitamin d (d2 + d3)":            "vitamin_d",
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Food, error) {
	barcode = strings.TrimSpace(barcode)
	foods, err := c.search(ctx, barcode, 20)
	if err != nil {
		return Food{}, err
	}
	for _, f := range foods {
		if f.Barcode == barcode {
			return f, nil
		}
	}
	if len(foods) > 0 {
		return foods[0], nil
	}
	return Food{}, fmt.Errorf("no USDA branded food found for barcode %q", barcode)
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]Food, error) {
	if limit <= 0 {
		limit = 10
	}
	foods, err := c.search(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, err
	}
	if len(foods) == 0 {
		return nil, fmt.Errorf("no USDA branded food found for query %q", query)
	}
	return foods, nil
}

func (c *Client) search(ctx context.Context, query string, pageSize int) ([]Food, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}

	payload, err := json.Marshal(map[string]any{
		"query":    query,
		"dataType": []string{"Branded"},
		"pageSize": pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal USDA search payload: %w", err)
	}
	endpoint := fmt.Sprintf("%s/fdc/v1/foods/search?api_key=%s", baseURL, url.QueryEscape(c.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create USDA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute USDA request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read USDA response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("USDA request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode USDA response: %w", err)
	}
	out := make([]Food, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		out = append(out, toFood(f))
	}
	return out, nil
}

func toFood(f usdaFood) Food {
	out := Food{
		FDCID:         f.FDCID,
		Barcode:       strings.TrimSpace(f.GTINUPC),
		Name:          strings.TrimSpace(f.Description),
		Brand:         strings.TrimSpace(f.BrandOwner),
		ServingAmount: f.ServingSize,
		ServingUnit:   strings.ToLower(strings.TrimSpace(f.ServingSizeUnit)),
		Per100:        map[string]float64{},
	}
	for _, n := range f.FoodNutrients {
		name := strings.ToLower(strings.TrimSpace(n.NutrientName))
		key, ok := nutrientKeys[name]
		if !ok {
			continue
		}
		// Energy is also reported in kJ.
		if key == "calories" && n.UnitName != "" && !strings.EqualFold(n.UnitName, "kcal") {
			continue
		}
		out.Per100[key] = n.Value
	}
	return out
}

type searchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	FDCID           int64          `json:"fdcId"`
	Description     string         `json:"description"`
	BrandOwner      string         `json:"brandOwner"`
	GTINUPC         string         `json:"gtinUpc"`
	ServingSize     float64        `json:"servingSize"`
	ServingSizeUnit string         `json:"servingSizeUnit"`
	FoodNutrients   []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}
