package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/robalobadob/historyguesser/internal/history"
)

type stubSource struct{ err error }

func (s stubSource) Event(context.Context, int) (history.Event, error) {
	return history.Event{}, s.err
}

func (s stubSource) Find(context.Context, history.Query) ([]history.Event, error) {
	return nil, s.err
}

func TestInstrumentCountsByStatus(t *testing.T) {
	m := New()
	ok := m.Instrument(stubSource{})
	bad := m.Instrument(stubSource{err: history.ErrTransient})

	_, _ = ok.Find(context.Background(), history.Query{Year: 1800, Month: 1})
	_, _ = bad.Find(context.Background(), history.Query{Year: 1800, Month: 1})
	_, _ = bad.Event(context.Background(), 1)
	_, _ = m.Instrument(stubSource{err: errors.New("boom")}).Event(context.Background(), 1)

	body := scrape(t, m)
	for _, want := range []string{
		`historyguesser_source_requests_total{op="find_month",status="ok"} 1`,
		`historyguesser_source_requests_total{op="find_month",status="transient"} 1`,
		`historyguesser_source_requests_total{op="event",status="transient"} 1`,
		`historyguesser_source_requests_total{op="event",status="error"} 1`,
		`historyguesser_source_request_duration_seconds_count{op="find_month"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	return rec.Body.String()
}

func TestHandlerExposesGameCounters(t *testing.T) {
	m := New()
	m.SessionStarted("daily")
	m.Guess("won")
	m.Clue("placeholder")
	m.TrackActiveSessions(func() int { return 3 })

	body := scrape(t, m)
	for _, want := range []string{
		`historyguesser_sessions_started_total{mode="daily"} 1`,
		`historyguesser_guesses_total{result="won"} 1`,
		`historyguesser_clues_total{tier="placeholder"} 1`,
		`historyguesser_sessions_active 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
