package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	appLog "earningscal/internal/log"
	"earningscal/internal/model"
)

const (
	// DefaultBaseURL is the Finnhub REST endpoint root.
	DefaultBaseURL = "https://finnhub.io/api/v1"

	dateLayout = "2006-01-02"
)

// ErrMissingToken is returned before any network I/O when the client has no
// API token.
var ErrMissingToken = errors.New("finnhub API token is missing")

// Client is a minimal Finnhub earnings-calendar client. The token is sent in
// the X-Finnhub-Token header so request URLs stay safe to log.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a Client. baseURL falls back to DefaultBaseURL and
// timeout to 30s when unset.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// earningsResponse mirrors the /calendar/earnings payload.
type earningsResponse struct {
	EarningsCalendar []earningsEntry `json:"earningsCalendar"`
}

type earningsEntry struct {
	Symbol          string              `json:"symbol"`
	Date            string              `json:"date"`
	Hour            string              `json:"hour"`
	Quarter         int                 `json:"quarter"`
	Year            int                 `json:"year"`
	EPSEstimate     decimal.NullDecimal `json:"epsEstimate"`
	EPSActual       decimal.NullDecimal `json:"epsActual"`
	RevenueEstimate *int64              `json:"revenueEstimate"`
	RevenueActual   *int64              `json:"revenueActual"`
}

// EarningsCalendar fetches all earnings records in [from, to] (dates
// inclusive, time components ignored). Entries missing a symbol or carrying
// an unparseable date are skipped with a warning; transport, status and
// decode errors are fatal for the run.
func (c *Client) EarningsCalendar(ctx context.Context, from, to time.Time) ([]model.EarningsRecord, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}
	if to.Before(from) {
		return nil, fmt.Errorf("invalid window: to %s is before from %s",
			to.Format(dateLayout), from.Format(dateLayout))
	}

	q := url.Values{}
	q.Set("from", from.Format(dateLayout))
	q.Set("to", to.Format(dateLayout))
	reqURL := c.baseURL + "/calendar/earnings?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Finnhub-Token", c.token)
	req.Header.Set("Accept", "application/json")

	appLog.Info("earnings fetch start", "from", q.Get("from"), "to", q.Get("to"))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("earnings calendar request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("earnings calendar request rejected (check FINNHUB_TOKEN): %s", resp.Status)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("earnings calendar rate limited: %s", resp.Status)
	default:
		return nil, fmt.Errorf("earnings calendar unexpected status: %s", resp.Status)
	}

	var payload earningsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("earnings calendar decode: %w", err)
	}

	records := make([]model.EarningsRecord, 0, len(payload.EarningsCalendar))
	skipped := 0
	for _, e := range payload.EarningsCalendar {
		rec, err := e.toRecord()
		if err != nil {
			skipped++
			appLog.Error("skipping malformed earnings entry", err, "symbol", e.Symbol, "date", e.Date)
			continue
		}
		records = append(records, rec)
	}

	appLog.Info("earnings fetch completed", "records", len(records), "skipped", skipped)
	return records, nil
}

func (e earningsEntry) toRecord() (model.EarningsRecord, error) {
	if e.Symbol == "" {
		return model.EarningsRecord{}, errors.New("entry has no symbol")
	}
	day, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return model.EarningsRecord{}, fmt.Errorf("bad report date %q: %w", e.Date, err)
	}
	return model.EarningsRecord{
		Symbol:          e.Symbol,
		Date:            day,
		Quarter:         e.Quarter,
		Year:            e.Year,
		Hour:            e.Hour,
		EPSEstimate:     e.EPSEstimate,
		EPSActual:       e.EPSActual,
		RevenueEstimate: e.RevenueEstimate,
		RevenueActual:   e.RevenueActual,
	}, nil
}
