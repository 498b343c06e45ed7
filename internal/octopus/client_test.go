package octopus

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"consumo/internal/core"
)

// fakeKraken answers the token mutation and the measurements query the
// way the real endpoint shapes them.
func fakeKraken(t *testing.T, measurementsBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Query, "obtainKrakenToken") {
			w.Write([]byte(`{"data":{"obtainKrakenToken":{"token":"test-jwt"}}}`))
			return
		}
		if r.Header.Get("Authorization") != "JWT test-jwt" {
			t.Errorf("missing JWT header, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(measurementsBody))
	}))
}

func TestGetDailyConsumption(t *testing.T) {
	body := `{"data":{"property":{"measurements":{"edges":[
		{"node":{"value":"5.25","unit":"kWh","startAt":"2025-07-01T00:00:00Z"}},
		{"node":{"value":"4.80","unit":"kWh","startAt":"2025-07-02T00:00:00Z"}}
	]}}}}`
	srv := fakeKraken(t, body)
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Email: "u@example.com", Password: "pw", PropertyID: "1"})
	got, err := c.GetDailyConsumption(context.Background(),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get daily consumption: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("readings = %d, want 2", len(got))
	}
	if got[0].Kwh != 5.25 || got[0].StartAt.Day() != 1 {
		t.Fatalf("first measurement = %+v", got[0])
	}
	if got[1].Kwh != 4.8 || got[1].StartAt.Day() != 2 {
		t.Fatalf("second measurement = %+v", got[1])
	}
}

func TestGraphQLErrorsSurfaceAsReadingSourceError(t *testing.T) {
	srv := fakeKraken(t, `{"errors":[{"message":"property not found"}]}`)
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Email: "u@example.com", Password: "pw", PropertyID: "1"})
	_, err := c.GetDailyConsumption(context.Background(), time.Now(), time.Now())

	var srcErr *core.ReadingSourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected *core.ReadingSourceError, got %v", err)
	}
	if !strings.Contains(err.Error(), "property not found") {
		t.Fatalf("upstream message lost: %v", err)
	}
}

func TestAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"invalid credentials"}]}`))
	}))
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Email: "u@example.com", Password: "bad", PropertyID: "1"})
	_, err := c.GetDailyConsumption(context.Background(), time.Now(), time.Now())

	var srcErr *core.ReadingSourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("expected *core.ReadingSourceError, got %v", err)
	}
	if srcErr.Op != "obtain_token" {
		t.Fatalf("op = %q, want obtain_token", srcErr.Op)
	}
}

func TestTokenIsCachedAcrossCalls(t *testing.T) {
	tokenRequests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Query, "obtainKrakenToken") {
			tokenRequests++
			w.Write([]byte(`{"data":{"obtainKrakenToken":{"token":"test-jwt"}}}`))
			return
		}
		w.Write([]byte(`{"data":{"property":{"measurements":{"edges":[]}}}}`))
	}))
	defer srv.Close()

	c := New(Config{APIURL: srv.URL, Email: "u@example.com", Password: "pw", PropertyID: "1"})
	for i := 0; i < 3; i++ {
		if _, err := c.GetDailyConsumption(context.Background(), time.Now(), time.Now()); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if tokenRequests != 1 {
		t.Fatalf("token requests = %d, want 1 (cached)", tokenRequests)
	}
}
