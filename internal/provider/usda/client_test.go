package usda

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupBarcodeParsesUSDAResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "demo" {
			t.Errorf("missing api key in %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "foods": [
    {"fdcId": 1, "description": "Other", "gtinUpc": "999"},
    {
      "fdcId": 12345,
      "description": "Greek Yogurt",
      "brandOwner": "Test Brand",
      "gtinUpc": "012345678905",
      "servingSize": 170,
      "servingSizeUnit": "G",
      "foodNutrients": [
        {"nutrientName": "Energy", "unitName": "kJ", "value": 418},
        {"nutrientName": "Energy", "unitName": "KCAL", "value": 100},
        {"nutrientName": "Protein", "value": 17},
        {"nutrientName": "Carbohydrate, by difference", "value": 6},
        {"nutrientName": "Sodium, Na", "unitName": "MG", "value": 50},
        {"nutrientName": "Cholesterol", "value": 5}
      ]
    }
  ]
}`))
	}))
	defer ts.Close()

	c := &Client{APIKey: "demo", BaseURL: ts.URL, HTTPClient: ts.Client()}
	food, err := c.LookupBarcode(context.Background(), "012345678905")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if food.FDCID != 12345 || food.ServingUnit != "g" {
		t.Fatalf("unexpected food: %+v", food)
	}
	if food.Per100["calories"] != 100 || food.Per100["protein"] != 17 || food.Per100["total_carbs"] != 6 || food.Per100["sodium"] != 50 {
		t.Fatalf("unexpected nutrients: %+v", food.Per100)
	}
	if _, ok := food.Per100["cholesterol"]; ok {
		t.Fatalf("unexpected cholesterol key: %+v", food.Per100)
	}
}

func TestMissingAPIKey(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if _, err := c.SearchFoods(context.Background(), "yogurt", 5); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
