package orion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TheIgorMC/mysite/internal/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-id", "test-secret", 5*time.Second, logger.NewSilent())
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveUpstream(outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestObserverSeesCallOutcomes(t *testing.T) {
	obs := &recordingObserver{}

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	c.SetObserver(obs)
	if _, err := c.EventTypes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	c.SetObserver(obs)
	if _, err := c.EventTypes(context.Background()); err == nil {
		t.Fatal("expected rejection")
	}

	c = NewHTTPClient("http://127.0.0.1:1", "", "", time.Second, logger.NewSilent())
	c.SetObserver(obs)
	if _, err := c.EventTypes(context.Background()); err == nil {
		t.Fatal("expected transport failure")
	}

	want := []string{"ok", "rejected", "unreachable"}
	if len(obs.outcomes) != len(want) {
		t.Fatalf("expected %d observations, got %v", len(want), obs.outcomes)
	}
	for i, outcome := range want {
		if obs.outcomes[i] != outcome {
			t.Errorf("observation %d = %q, want %q", i, obs.outcomes[i], outcome)
		}
	}
}

func TestSearchAthletesBareList(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/atleti" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "rossi" {
			t.Errorf("expected query rossi, got %q", got)
		}
		w.Write([]byte(`[{"tessera":"93471","nome":"ROSSI Mario","classe":"SM"}]`))
	})

	athletes, err := c.SearchAthletes(context.Background(), "rossi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(athletes) != 1 {
		t.Fatalf("expected 1 athlete, got %d", len(athletes))
	}
	if athletes[0].Nome != "ROSSI Mario" {
		t.Errorf("expected ROSSI Mario, got %s", athletes[0].Nome)
	}
}

func TestSearchAthletesWrappedList(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"tessera":93471,"nome":"ROSSI Mario"},{"tessera":"93472","nome":"BIANCHI Giulia"}]}`))
	})

	athletes, err := c.SearchAthletes(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(athletes) != 2 {
		t.Fatalf("expected 2 athletes, got %d", len(athletes))
	}
	// numeric tessera must decode to its string form
	if athletes[0].Tessera != "93471" {
		t.Errorf("expected tessera 93471, got %q", athletes[0].Tessera)
	}
}

func TestAccessHeaders(t *testing.T) {
	var gotID, gotSecret string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("CF-Access-Client-Id")
		gotSecret = r.Header.Get("CF-Access-Client-Secret")
		w.Write([]byte(`[]`))
	})

	if _, err := c.EventTypes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "test-id" || gotSecret != "test-secret" {
		t.Errorf("access headers not forwarded: id=%q secret=%q", gotID, gotSecret)
	}
}

func TestNoAccessHeadersWithoutCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("CF-Access-Client-Id") != "" {
			t.Error("access header sent without credentials configured")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "", 5*time.Second, logger.NewSilent())
	if _, err := c.EventTypes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRejectedError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"insufficient stock"}`))
	})

	_, err := c.ConsumeMaterial(context.Background(), 5, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %T", err)
	}
	if rejected.Status != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rejected.Status)
	}
	if !strings.Contains(rejected.Body, "insufficient stock") {
		t.Errorf("body not preserved: %q", rejected.Body)
	}
}

func TestRejectedErrorTruncatesBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 2000)))
	})

	_, err := c.EventTypes(context.Background())
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %T", err)
	}
	if len(rejected.Body) > maxErrorBody+3 {
		t.Errorf("body not truncated: %d bytes", len(rejected.Body))
	}
}

func TestUnreachableError(t *testing.T) {
	// port 1 is never listening
	c := NewHTTPClient("http://127.0.0.1:1", "", "", time.Second, logger.NewSilent())

	_, err := c.EventTypes(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var unreachable *UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected UnreachableError, got %T", err)
	}
}

func TestBadResponseError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	})

	_, err := c.SearchAthletes(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	var bad *BadResponseError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadResponseError, got %T", err)
	}
}

func TestAthleteResultsQuery(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/athlete/93471/results" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("event_type") != "Indoor 18m" {
			t.Errorf("event_type not forwarded: %q", q.Get("event_type"))
		}
		if q.Get("limit") != "500" {
			t.Errorf("expected default limit 500, got %q", q.Get("limit"))
		}
		w.Write([]byte(`[{"atleta":"93471","nome_gara":"Trofeo","posizione":3,"punteggio":550}]`))
	})

	results, err := c.AthleteResults(context.Background(), "93471", ResultsOptions{EventType: "Indoor 18m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Posizione == nil || *results[0].Posizione != 3 {
		t.Error("posizione not decoded")
	}
}

func TestResultNullPositionAndScore(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"atleta":"93471","nome_gara":"Trofeo","posizione":null,"punteggio":null}]`))
	})

	results, err := c.AthleteResults(context.Background(), "93471", ResultsOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Posizione != nil || results[0].Punteggio != nil {
		t.Error("null position/score should decode to nil")
	}
}

func TestCreateSubscriptionDefaultsState(t *testing.T) {
	var received Iscrizione
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		received.ID = 42
		json.NewEncoder(w).Encode(received)
	})

	created, err := c.CreateSubscription(context.Background(), Iscrizione{
		CodiceGara:    "25A001",
		TesseraAtleta: "93471",
		Turno:         "1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.Stato != "confermato" {
		t.Errorf("expected state defaulted to confermato, got %q", received.Stato)
	}
	if created.ID != 42 {
		t.Errorf("expected returned id 42, got %d", created.ID)
	}
}

func TestSendEmailDefaultsLocale(t *testing.T) {
	var received EmailRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/email/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"queued":true}`))
	})

	err := c.SendEmail(context.Background(), EmailRequest{
		RecipientEmail: "club@example.com",
		MailType:       "subscription_report",
		Subject:        "Iscrizioni",
		BodyText:       "test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.Locale != "it" {
		t.Errorf("expected locale defaulted to it, got %q", received.Locale)
	}
}

func TestElecPassthroughPreservesUnknownFields(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"part_number":"R0402-10K","custom_field":{"nested":true}}]}`))
	})

	items, err := c.ElecComponentSearch(context.Background(), "R0402")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if !strings.Contains(string(items[0]), "custom_field") {
		t.Error("unknown fields must pass through untouched")
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FlexString
	}{
		{"string", `"93471"`, "93471"},
		{"number", `93471`, "93471"},
		{"float code", `6.014`, "6.014"},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f != tt.want {
				t.Errorf("expected %q, got %q", tt.want, f)
			}
		})
	}

	t.Run("rejects object", func(t *testing.T) {
		var f FlexString
		if err := json.Unmarshal([]byte(`{}`), &f); err == nil {
			t.Error("expected error for object input")
		}
	})
}
