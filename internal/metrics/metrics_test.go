package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape returned %d", rec.Code)
	}
	return rec.Body.String()
}

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/athlete/{tessera}/results", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tessera := range []string{"93471", "93472"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/athlete/"+tessera+"/results", nil))
	}

	body := scrape(t, m)
	// both requests collapse into one pattern-labeled series
	if !strings.Contains(body, `route="/api/athlete/{tessera}/results"`) {
		t.Error("route pattern label missing from scrape")
	}
	if strings.Contains(body, `route="/api/athlete/93471/results"`) {
		t.Error("raw path leaked into labels")
	}
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if !strings.Contains(scrape(t, m), `status="502"`) {
		t.Error("status label missing from scrape")
	}
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.ObserveUpstream("ok", 120*time.Millisecond)
	m.ObserveUpstream("rejected", 80*time.Millisecond)
	m.CountNotifications(2, 1)
	m.SetRankingEntries(42)

	body := scrape(t, m)
	for _, want := range []string{
		`mysite_upstream_requests_total{outcome="ok"} 1`,
		`mysite_upstream_requests_total{outcome="rejected"} 1`,
		`mysite_notifications_sent_total 2`,
		`mysite_notifications_failed_total 1`,
		`mysite_ranking_positions_entries 42`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}
