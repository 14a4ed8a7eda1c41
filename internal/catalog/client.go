// Package catalog fetches the remote product feed and maps its raw
// records into the Product shape the cart consumes. The catalog is an
// external collaborator: its availability never affects the cart or
// pricing core.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/DavidEng0805/web-final-re-exam/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]domain.Product]
	sfg        singleflight.Group // collapses concurrent fetches

	mu       sync.RWMutex
	lastGood []domain.Product
}

func NewClient(baseURL string) *Client {
	st := gobreaker.Settings{
		Name:     "catalog",
		Interval: 10 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("catalog: circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    gobreaker.NewCircuitBreaker[[]domain.Product](st),
	}
}

// FetchProducts retrieves and maps the product feed. On success the
// result also replaces the cached last-good list. Concurrent callers
// share a single upstream request.
func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := c.sfg.Do("products", func() (interface{}, error) {
		products, err := c.breaker.Execute(func() ([]domain.Product, error) {
			return c.fetch(ctx)
		})
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.lastGood = products
		c.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return copyProducts(v.([]domain.Product)), nil
}

// Cached returns the most recently fetched product list, possibly
// empty. Callers fall back to it when FetchProducts fails so the
// product list stays whatever it was before the failure.
func (c *Client) Cached() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyProducts(c.lastGood)
}

func (c *Client) fetch(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("building catalog request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var payload productsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding catalog response failed: %w", err)
	}

	products := make([]domain.Product, len(payload.Products))
	for i, raw := range payload.Products {
		products[i] = mapProduct(raw)
	}
	return products, nil
}

func copyProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}
