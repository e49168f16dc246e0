// Package spoonacular looks recipes up in the Spoonacular API: a complex
// search for the best hit followed by its full information with nutrition.
package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/chefgenie/internal/apperr"
	"github.com/starford/chefgenie/internal/models"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.spoonacular.com"

// DefaultTimeout bounds each API call.
const DefaultTimeout = 5 * time.Second

// nutrientLimit is how many nutrients are kept, in API order.
const nutrientLimit = 3

// Client is a rate-limited Spoonacular client.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	rps     float64
	limiter *rate.Limiter
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets the per-call timeout.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRate limits outbound calls to rps per second with a burst of 1.
// A non-positive rps disables limiting.
func WithRate(rps float64) Option {
	return func(c *Client) {
		c.rps = rps
	}
}

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	limit := rate.Inf
	if c.rps > 0 {
		limit = rate.Limit(c.rps)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	c.client = &http.Client{Timeout: c.timeout}
	return c
}

type searchResponse struct {
	Results []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	} `json:"results"`
}

type informationResponse struct {
	Title               string `json:"title"`
	ExtendedIngredients []struct {
		Original string `json:"original"`
	} `json:"extendedIngredients"`
	AnalyzedInstructions []struct {
		Steps []struct {
			Step string `json:"step"`
		} `json:"steps"`
	} `json:"analyzedInstructions"`
	Nutrition struct {
		Nutrients []struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
			Unit   string  `json:"unit"`
		} `json:"nutrients"`
	} `json:"nutrition"`
}

// Lookup returns the best recipe for dish. It returns apperr.ErrNotFound
// when the search has no results.
func (c *Client) Lookup(ctx context.Context, dish string) (*models.RemoteRecipe, error) {
	var search searchResponse
	err := c.get(ctx, "/recipes/complexSearch", url.Values{
		"query":  {dish},
		"number": {"1"},
	}, &search)
	if err != nil {
		return nil, err
	}
	if len(search.Results) == 0 {
		return nil, fmt.Errorf("spoonacular: %q: %w", dish, apperr.ErrNotFound)
	}

	var info informationResponse
	path := "/recipes/" + strconv.FormatInt(search.Results[0].ID, 10) + "/information"
	if err := c.get(ctx, path, url.Values{"includeNutrition": {"true"}}, &info); err != nil {
		return nil, err
	}
	return toRecipe(dish, info), nil
}

func toRecipe(dish string, info informationResponse) *models.RemoteRecipe {
	r := &models.RemoteRecipe{
		Title:       info.Title,
		Ingredients: make([]string, 0, len(info.ExtendedIngredients)),
		Steps:       []string{},
		Nutrition:   models.NewNutrition(),
	}
	if r.Title == "" {
		r.Title = dish
	}
	for _, ing := range info.ExtendedIngredients {
		r.Ingredients = append(r.Ingredients, ing.Original)
	}
	if len(info.AnalyzedInstructions) > 0 {
		for _, s := range info.AnalyzedInstructions[0].Steps {
			r.Steps = append(r.Steps, s.Step)
		}
	}
	for i, n := range info.Nutrition.Nutrients {
		if i == nutrientLimit {
			break
		}
		r.Nutrition.Set(n.Name, strconv.FormatFloat(n.Amount, 'f', -1, 64)+" "+n.Unit)
	}
	return r
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("spoonacular: rate limit: %w", err)
	}

	q.Set("apiKey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("spoonacular: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spoonacular: HTTP %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spoonacular: decode %s: %w", path, err)
	}
	return nil
}
