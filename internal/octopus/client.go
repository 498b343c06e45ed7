// Package octopus talks to the Octopus Energy (Kraken) GraphQL API.
// It is the reading-source collaborator: authentication plus the daily
// consumption query, nothing else.
package octopus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"consumo/internal/core"
	"consumo/internal/log"
)

const (
	// Kraken measurements are requested in the property's timezone so a
	// DAY_INTERVAL reading maps to one local calendar day.
	timezone = "Atlantic/Canary"

	// One month never has more than 31 daily readings.
	maxReadingsPerMonth = 31

	requestTimeout = 30 * time.Second

	// Tokens are reused until shortly before they would expire.
	tokenRefreshBuffer = 5 * time.Minute
	tokenLifetime      = time.Hour
)

const authMutation = `
mutation obtainKrakenToken($input: ObtainJSONWebTokenInput!) {
  obtainKrakenToken(input: $input) {
    token
  }
}`

const consumptionQuery = `
query getAccountMeasurements(
    $propertyId: ID!, $first: Int!, $startAt: DateTime!, $endAt: DateTime!, $timezone: String, $utilityFilters: [UtilityFiltersInput!]
) {
    property(id: $propertyId) {
        measurements(first: $first, startAt: $startAt, endAt: $endAt, timezone: $timezone, utilityFilters: $utilityFilters) {
            edges {
                node {
                    value
                    unit
                    ... on IntervalMeasurementType {
                        startAt
                        endAt
                    }
                }
            }
        }
    }
}`

type Config struct {
	APIURL     string
	Email      string
	Password   string
	PropertyID string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *log.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func New(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log.New(log.Config{Component: log.ComponentOctopus}),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// GetDailyConsumption fetches daily readings for the inclusive UTC
// window [start, end]. Failures come back as *core.ReadingSourceError.
func (c *Client) GetDailyConsumption(ctx context.Context, start, end time.Time) ([]core.Measurement, error) {
	token, err := c.obtainToken(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Requesting daily consumption",
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339))

	req := graphQLRequest{
		Query: consumptionQuery,
		Variables: map[string]any{
			"propertyId": c.cfg.PropertyID,
			"first":      maxReadingsPerMonth,
			"startAt":    start.UTC().Format(time.RFC3339),
			"endAt":      end.UTC().Format(time.RFC3339),
			"timezone":   timezone,
			"utilityFilters": []map[string]any{{
				"electricityFilters": map[string]any{
					"readingFrequencyType": "DAY_INTERVAL",
					"readingDirection":     "CONSUMPTION",
				},
			}},
		},
	}

	var result struct {
		Data struct {
			Property struct {
				Measurements struct {
					Edges []struct {
						Node struct {
							Value   string    `json:"value"`
							Unit    string    `json:"unit"`
							StartAt time.Time `json:"startAt"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"measurements"`
			} `json:"property"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}

	if err := c.post(ctx, req, token, &result); err != nil {
		return nil, &core.ReadingSourceError{Op: "get_measurements", Err: err}
	}
	if len(result.Errors) > 0 {
		return nil, &core.ReadingSourceError{Op: "get_measurements", Err: graphQLErrors(result.Errors)}
	}

	edges := result.Data.Property.Measurements.Edges
	measurements := make([]core.Measurement, 0, len(edges))
	for _, edge := range edges {
		kwh, err := strconv.ParseFloat(edge.Node.Value, 64)
		if err != nil {
			return nil, &core.ReadingSourceError{
				Op:  "get_measurements",
				Err: fmt.Errorf("parse value %q: %w", edge.Node.Value, err),
			}
		}
		measurements = append(measurements, core.Measurement{
			StartAt: edge.Node.StartAt,
			Kwh:     kwh,
		})
	}

	c.logger.InfoContext(ctx, "Daily consumption fetched", log.FieldReadings, len(measurements))
	return measurements, nil
}

// obtainToken returns a cached JWT or requests a fresh one through the
// obtainKrakenToken mutation.
func (c *Client) obtainToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > tokenRefreshBuffer {
		return c.token, nil
	}

	c.logger.DebugContext(ctx, "Requesting new API token")

	req := graphQLRequest{
		Query: authMutation,
		Variables: map[string]any{
			"input": map[string]any{
				"email":    c.cfg.Email,
				"password": c.cfg.Password,
			},
		},
	}

	var result struct {
		Data struct {
			ObtainKrakenToken struct {
				Token string `json:"token"`
			} `json:"obtainKrakenToken"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}

	if err := c.post(ctx, req, "", &result); err != nil {
		return "", &core.ReadingSourceError{Op: "obtain_token", Err: err}
	}
	if len(result.Errors) > 0 {
		return "", &core.ReadingSourceError{Op: "obtain_token", Err: graphQLErrors(result.Errors)}
	}
	if result.Data.ObtainKrakenToken.Token == "" {
		return "", &core.ReadingSourceError{Op: "obtain_token", Err: fmt.Errorf("empty token received")}
	}

	c.token = result.Data.ObtainKrakenToken.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	return c.token, nil
}

func (c *Client) post(ctx context.Context, body graphQLRequest, token string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "JWT "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(preview))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func graphQLErrors(errs []graphQLError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return fmt.Errorf("graphql errors: %s", strings.Join(msgs, ", "))
}
