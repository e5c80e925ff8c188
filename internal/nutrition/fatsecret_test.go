package nutrition

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newStubFatSecret(t *testing.T, status int, body string) *FatSecretClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if got := r.URL.Query().Get("method"); got != "foods.search" {
			t.Errorf("unexpected method param: %q", got)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewFatSecretClient("test-token")
	client.baseURL = server.URL
	return client
}

func TestFoodDescriptionSingleResult(t *testing.T) {
	client := newStubFatSecret(t, http.StatusOK,
		`{"foods":{"food":{"food_description":"Per 100g - Calories: 165kcal | Fat: 3.57g | Carbs: 0.00g | Protein: 31.02g"}}}`)

	description, err := client.FoodDescription(context.Background(), "chicken breast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if description != "Per 100g - Calories: 165kcal | Fat: 3.57g | Carbs: 0.00g | Protein: 31.02g" {
		t.Fatalf("unexpected description: %q", description)
	}
}

func TestFoodDescriptionListResult(t *testing.T) {
	client := newStubFatSecret(t, http.StatusOK,
		`{"foods":{"food":[{"food_description":"Per 100g - Calories: 52kcal | Fat: 0.17g | Carbs: 13.81g | Protein: 0.26g"},{"food_description":"second"}]}}`)

	description, err := client.FoodDescription(context.Background(), "apple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if description == "" || description == "second" {
		t.Fatalf("expected first list entry, got %q", description)
	}
}

func TestFoodDescriptionEmptyResponse(t *testing.T) {
	client := newStubFatSecret(t, http.StatusOK, `{"foods":null}`)

	_, err := client.FoodDescription(context.Background(), "unknowable")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestFoodDescriptionAPIError(t *testing.T) {
	client := newStubFatSecret(t, http.StatusOK, `{"error":{"code":13,"message":"invalid token"}}`)

	_, err := client.FoodDescription(context.Background(), "apple")
	if err == nil {
		t.Fatalf("expected error for API error payload")
	}
}

func TestFoodDescriptionNon200(t *testing.T) {
	client := newStubFatSecret(t, http.StatusTooManyRequests, `rate limited`)

	_, err := client.FoodDescription(context.Background(), "apple")
	if err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestParseFoodDescription(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        Nutrition
	}{
		{
			name:        "full description",
			description: "Per 100g - Calories: 165kcal | Fat: 3.57g | Carbs: 0.00g | Protein: 31.02g",
			want:        Nutrition{Calories: 165, Fat: 3.57, Carbohydrates: 0, Protein: 31.02},
		},
		{
			name:        "unparseable field defaults to zero",
			description: "Per 100g - Calories: lots | Fat: 2g | Carbs: 10g | Protein: 1g",
			want:        Nutrition{Calories: 0, Fat: 2, Carbohydrates: 10, Protein: 1},
		},
		{
			name:        "no recognizable fields",
			description: "a tasty snack",
			want:        Nutrition{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseFoodDescription(tc.description)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
