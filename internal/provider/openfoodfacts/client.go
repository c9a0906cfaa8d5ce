// Package openfoodfacts looks up packaged foods in the Open Food Facts
// database.
package openfoodfacts

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

const (
	defaultBaseURL   = "https://world.openfoodfacts.org"
	defaultUserAgent = "health-manager/1.0 (+https://github.com/aazoaer/health-manager)"
)

// Product is a food with its nutrients per 100 g (or 100 ml), keyed like
// meal level1 nutrients: calories in kcal; protein, total_fat, total_carbs,
// fiber and sugars in g; sodium, calcium and vitamin_c in mg; vitamin_d in ug.
type Product struct {
	Barcode       string
	Name          string
	Brand         string
	ServingAmount float64
	ServingUnit   string
	Per100        map[string]float64
}

type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// nutriment base name, target key, factor from the stored unit.
var nutriments = []struct {
	base   string
	key    string
	factor float64
}{
	{"energy-kcal", "calories", 1},
	{"proteins", "protein", 1},
	{"fat", "total_fat", 1},
	{"carbohydrates", "total_carbs", 1},
	{"fiber", "fiber", 1},
	{"sugars", "sugars", 1},
	{"sodium", "sodium", 1000},
	{"calcium", "calcium", 1000},
	{"vitamin-c", "vitamin_c", 1000},
	{"vitamin-d", "vitamin_d", 1e6},
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	var parsed offResponse
	if err := c.get(ctx, fmt.Sprintf("/api/v2/product/%s.json", url.PathEscape(barcode)), &parsed); err != nil {
		return Product{}, err
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return Product{}, fmt.Errorf("no openfoodfacts product found for barcode %q", barcode)
	}
	p := toProduct(parsed.Product)
	if p.Barcode == "" {
		p.Barcode = barcode
	}
	return p, nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 10
	}
	path := fmt.Sprintf("/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		url.QueryEscape(strings.TrimSpace(query)), limit)
	var parsed offSearchResponse
	if err := c.get(ctx, path, &parsed); err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		out = append(out, toProduct(p))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no openfoodfacts product found for query %q", query)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, into any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	agent := c.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", agent)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	return nil
}

func toProduct(p offProduct) Product {
	amount, unit := parseServing(p)
	code := strings.TrimSpace(p.Code)
	if code == "" {
		code = strings.TrimSpace(p.ID)
	}
	return Product{
		Barcode:       code,
		Name:          strings.TrimSpace(p.ProductName),
		Brand:         strings.TrimSpace(p.Brands),
		ServingAmount: amount,
		ServingUnit:   unit,
		Per100:        per100(p.Nutriments, amount, unit),
	}
}

// per100 prefers the _100g figures; a serving-only figure is rescaled when
// the serving is measured in g or ml.
func per100(n map[string]any, servingAmount float64, servingUnit string) map[string]float64 {
	out := map[string]float64{}
	perServing := servingAmount > 0 && (servingUnit == "g" || servingUnit == "ml")
	for _, nm := range nutriments {
		if v, ok := parseFloatAny(n[nm.base+"_100g"]); ok {
			out[nm.key] = v * nm.factor
			continue
		}
		if v, ok := parseFloatAny(n[nm.base+"_serving"]); ok && perServing {
			out[nm.key] = v * nm.factor * 100 / servingAmount
		}
	}
	return out
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func parseServing(p offProduct) (float64, string) {
	if q, ok := parseFloatAny(p.ServingQuantity); ok && q > 0 {
		unit := strings.ToLower(strings.TrimSpace(p.ServingQuantityUnit))
		if unit == "" {
			unit = "g"
		}
		return q, unit
	}
	if fields := strings.Fields(strings.TrimSpace(p.ServingSize)); len(fields) >= 2 {
		if val, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64); err == nil && val > 0 {
			return val, strings.ToLower(fields[1])
		}
	}
	return 100, "g"
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ID                  string         `json:"_id"`
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     any            `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
