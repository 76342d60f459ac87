package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
)

// blockStub resolves every targetTime to a block whose height is the target's
// unix minute, so distinct minutes map to distinct heights and sub-minute
// targets collapse onto the same block.
func blockStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				TargetTime string `json:"targetTime"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		target, err := time.Parse(time.RFC3339, req.Variables.TargetTime)
		if err != nil {
			t.Fatalf("parse targetTime: %v", err)
		}
		height := target.Unix() / 60
		fmt.Fprintf(w, `{"data":{"blocks":{"nodes":[{"height":%d,"timestamp":%q}]}}}`,
			height, target.Truncate(time.Minute).Format(time.RFC3339))
	}))
}

func TestClosestAtOrBefore(t *testing.T) {
	srv := blockStub(t)
	defer srv.Close()

	l := NewLocator(graphql.NewClient(srv.URL, nil, 0, nil), 4, nil)
	target := time.Date(2026, 8, 1, 12, 30, 45, 0, time.UTC)

	point, err := l.ClosestAtOrBefore(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point == nil {
		t.Fatalf("expected a block")
	}
	if want := uint64(target.Unix() / 60); point.Height != want {
		t.Fatalf("height = %d, want %d", point.Height, want)
	}
}

func TestClosestAtOrBeforeNoBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"blocks":{"nodes":[]}}}`))
	}))
	defer srv.Close()

	l := NewLocator(graphql.NewClient(srv.URL, nil, 0, nil), 4, nil)
	point, err := l.ClosestAtOrBefore(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if point != nil {
		t.Fatalf("expected nil for empty horizon, got %+v", point)
	}
}

func TestResolveGridDeduplicatesAndSorts(t *testing.T) {
	srv := blockStub(t)
	defer srv.Close()

	l := NewLocator(graphql.NewClient(srv.URL, nil, 0, nil), 4, nil)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Out of order, with two targets inside the same minute.
	targets := []time.Time{
		base.Add(5 * time.Minute),
		base,
		base.Add(10 * time.Second),
		base.Add(2 * time.Minute),
	}
	points, err := l.ResolveGrid(context.Background(), targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 distinct blocks, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i-1].Height >= points[i].Height {
			t.Fatalf("heights not strictly ascending: %+v", points)
		}
	}
}

func TestResolveGridSkipsFailedTargets(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":{"blocks":{"nodes":[{"height":77,"timestamp":"2026-08-01T12:00:00Z"}]}}}`))
	}))
	defer srv.Close()

	// Concurrency 1 keeps the failure deterministic on the first target.
	l := NewLocator(graphql.NewClient(srv.URL, nil, 0, nil), 1, nil)
	points, err := l.ResolveGrid(context.Background(), []time.Time{
		time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 || points[0].Height != 77 {
		t.Fatalf("expected the surviving block only, got %+v", points)
	}
}

func TestNearestWithinRange(t *testing.T) {
	ts := func(min int) time.Time {
		return time.Date(2026, 8, 1, 12, min, 0, 0, time.UTC)
	}
	candidates := []model.BlockPoint{
		{Height: 10, Timestamp: ts(0)},
		{Height: 20, Timestamp: ts(10)},
		{Height: 30, Timestamp: ts(20)},
	}

	if got := NearestWithinRange(ts(12), candidates); got.Height != 20 {
		t.Fatalf("nearest = %d, want 20", got.Height)
	}
	// Equidistant target keeps the first candidate encountered.
	if got := NearestWithinRange(ts(5), candidates); got.Height != 10 {
		t.Fatalf("tie-break = %d, want 10", got.Height)
	}
	if got := NearestWithinRange(ts(5), nil); got != nil {
		t.Fatalf("expected nil for empty candidates")
	}
}
