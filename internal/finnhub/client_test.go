package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleBody = `{
  "earningsCalendar": [
    {
      "date": "2024-05-01",
      "epsActual": null,
      "epsEstimate": 1.5,
      "hour": "amc",
      "quarter": 2,
      "revenueActual": null,
      "revenueEstimate": 81500000000,
      "symbol": "AAPL",
      "year": 2024
    },
    {
      "date": "2024-05-03",
      "epsActual": null,
      "epsEstimate": null,
      "hour": "",
      "quarter": 0,
      "revenueActual": null,
      "revenueEstimate": null,
      "symbol": "XYZ",
      "year": 0
    },
    {
      "date": "2024-05-02",
      "epsEstimate": 0.5,
      "symbol": "",
      "year": 2024
    },
    {
      "date": "not-a-date",
      "epsEstimate": 0.5,
      "symbol": "BAD",
      "year": 2024
    }
  ]
}`

func window(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 30)
}

func TestEarningsCalendar(t *testing.T) {
	var gotFrom, gotTo, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar/earnings" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/calendar/earnings")
		}
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		gotToken = r.Header.Get("X-Finnhub-Token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", 0)
	from, to := window(t)

	records, err := c.EarningsCalendar(context.Background(), from, to)
	if err != nil {
		t.Fatalf("EarningsCalendar returned error: %v", err)
	}

	if gotFrom != "2024-05-01" || gotTo != "2024-05-31" {
		t.Errorf("window sent = [%s, %s], want [2024-05-01, 2024-05-31]", gotFrom, gotTo)
	}
	if gotToken != "test-token" {
		t.Errorf("token header = %q, want %q", gotToken, "test-token")
	}

	// Entries with no symbol or a bad date are skipped.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	aapl := records[0]
	if aapl.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want %q", aapl.Symbol, "AAPL")
	}
	if got := aapl.Date.Format("2006-01-02"); got != "2024-05-01" {
		t.Errorf("Date = %q, want %q", got, "2024-05-01")
	}
	if aapl.Quarter != 2 || aapl.Year != 2024 {
		t.Errorf("period = Q%d %d, want Q2 2024", aapl.Quarter, aapl.Year)
	}
	if aapl.Hour != "amc" {
		t.Errorf("Hour = %q, want %q", aapl.Hour, "amc")
	}
	if !aapl.EPSEstimate.Valid || aapl.EPSEstimate.Decimal.String() != "1.5" {
		t.Errorf("EPSEstimate = %v, want 1.5", aapl.EPSEstimate)
	}
	if aapl.RevenueEstimate == nil || *aapl.RevenueEstimate != 81500000000 {
		t.Errorf("RevenueEstimate = %v, want 81500000000", aapl.RevenueEstimate)
	}

	xyz := records[1]
	if xyz.EPSEstimate.Valid {
		t.Errorf("XYZ EPSEstimate should be null, got %v", xyz.EPSEstimate.Decimal)
	}
	if xyz.RevenueEstimate != nil {
		t.Errorf("XYZ RevenueEstimate should be nil, got %v", *xyz.RevenueEstimate)
	}
}

func TestEarningsCalendarMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent despite missing token")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 0)
	from, to := window(t)

	_, err := c.EarningsCalendar(context.Background(), from, to)
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("err = %v, want ErrMissingToken", err)
	}
}

func TestEarningsCalendarServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", 0)
	from, to := window(t)

	if _, err := c.EarningsCalendar(context.Background(), from, to); err == nil {
		t.Error("expected error for 500 response, got nil")
	}
}

func TestEarningsCalendarRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "limit", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", 0)
	from, to := window(t)

	if _, err := c.EarningsCalendar(context.Background(), from, to); err == nil {
		t.Error("expected error for 429 response, got nil")
	}
}

func TestEarningsCalendarMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", 0)
	from, to := window(t)

	if _, err := c.EarningsCalendar(context.Background(), from, to); err == nil {
		t.Error("expected decode error, got nil")
	}
}

func TestEarningsCalendarContextTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the response until the test finishes.
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, "test-token", 0)
	from, to := window(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.EarningsCalendar(ctx, from, to)
	if err == nil {
		t.Fatal("expected error when the context deadline expires, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestEarningsCalendarContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent despite canceled context")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", 0)
	from, to := window(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.EarningsCalendar(ctx, from, to)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEarningsCalendarInvalidWindow(t *testing.T) {
	c := NewClient("http://localhost:0", "test-token", 0)
	from, to := window(t)

	if _, err := c.EarningsCalendar(context.Background(), to, from); err == nil {
		t.Error("expected error for inverted window, got nil")
	}
}
