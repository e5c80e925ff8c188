package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultFatSecretURL = "https://platform.fatsecret.com/rest/server.api"

// ErrNoResults indicates the lookup succeeded but returned no usable food.
var ErrNoResults = errors.New("nutrition: no results for food")

// LookupClient fetches the descriptive nutrition string for a food name.
type LookupClient interface {
	FoodDescription(ctx context.Context, foodName string) (string, error)
}

// FatSecretClient calls the FatSecret foods.search endpoint with a bearer
// access token.
type FatSecretClient struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

// NewFatSecretClient constructs a client for the hosted FatSecret API.
func NewFatSecretClient(accessToken string) *FatSecretClient {
	return &FatSecretClient{
		accessToken: accessToken,
		baseURL:     defaultFatSecretURL,
		httpClient:  http.DefaultClient,
	}
}

type foodSearchResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Foods *struct {
		Food json.RawMessage `json:"food"`
	} `json:"foods"`
}

type foodEntry struct {
	FoodDescription string `json:"food_description"`
}

// FoodDescription returns the descriptive macro string for the best match,
// e.g. "Per 100g - Calories: 165kcal | Fat: 3.57g | Carbs: 0.00g | Protein: 31.02g".
func (c *FatSecretClient) FoodDescription(ctx context.Context, foodName string) (string, error) {
	params := url.Values{}
	params.Set("method", "foods.search")
	params.Set("search_expression", foodName)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nutrition: fatsecret status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed foodSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("nutrition: decode fatsecret response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("nutrition: fatsecret error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if parsed.Foods == nil || len(parsed.Foods.Food) == 0 {
		return "", ErrNoResults
	}

	// The food field is a single object for one result and an array
	// otherwise.
	var single foodEntry
	if err := json.Unmarshal(parsed.Foods.Food, &single); err == nil && single.FoodDescription != "" {
		return single.FoodDescription, nil
	}
	var many []foodEntry
	if err := json.Unmarshal(parsed.Foods.Food, &many); err == nil && len(many) > 0 && many[0].FoodDescription != "" {
		return many[0].FoodDescription, nil
	}
	return "", ErrNoResults
}

// parseFoodDescription extracts macros from the pipe-delimited descriptive
// string. Unparseable fields stay zero; a fully zero result means the
// description carried no usable data.
func parseFoodDescription(description string) Nutrition {
	var parsed Nutrition
	for _, part := range strings.Split(description, "|") {
		part = strings.TrimSpace(part)
		switch {
		case strings.Contains(part, "Calories:"):
			parsed.Calories = parseMacroField(part, "kcal")
		case strings.Contains(part, "Fat:"):
			parsed.Fat = parseMacroField(part, "g")
		case strings.Contains(part, "Carbs:"):
			parsed.Carbohydrates = parseMacroField(part, "g")
		case strings.Contains(part, "Protein:"):
			parsed.Protein = parseMacroField(part, "g")
		}
	}
	return parsed
}

func parseMacroField(part, unit string) float64 {
	_, raw, found := strings.Cut(part, ":")
	if !found {
		return 0
	}
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), unit))
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}
