package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOptions configures a YahooProvider.
type YahooOptions struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	MaxElapsed     time.Duration
}

// YahooProvider downloads daily adjusted closes from the Yahoo chart API.
// Requests are rate limited and transient failures are retried with
// exponential backoff.
type YahooProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
	log        zerolog.Logger
}

func NewYahooProvider(opts YahooOptions, log zerolog.Logger) *YahooProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 2
	}
	if opts.MaxElapsed == 0 {
		opts.MaxElapsed = 30 * time.Second
	}
	return &YahooProvider{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		maxElapsed: opts.MaxElapsed,
		log:        log,
	}
}

func (p *YahooProvider) Fetch(ctx context.Context, req Request) (*Table, error) {
	start, end := req.Window(time.Now())

	var series []Series
	for _, sym := range req.Symbols {
		s, err := p.FetchSeries(ctx, sym, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn().Err(err).Str("symbol", sym).Msg("download failed, skipping instrument")
			continue
		}
		series = append(series, s)
	}
	p.log.Info().Int("requested", len(req.Symbols)).Int("loaded", len(series)).Msg("price download complete")
	return NewTable(series...), nil
}

// FetchSeries downloads a single instrument.
func (p *YahooProvider) FetchSeries(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), q.Encode())

	var body []byte
	op := func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := p.httpClient.Do(r)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			serr := &HTTPStatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return Series{}, err
	}
	return parseChart(symbol, body)
}

// HTTPStatusError represents a non-200 response from the data source.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func parseChart(symbol string, body []byte) (Series, error) {
	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Series{}, fmt.Errorf("decode chart: %w", err)
	}
	if cr.Chart.Error != nil {
		return Series{}, fmt.Errorf("chart error %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 {
		return Series{}, fmt.Errorf("chart: empty result for %s", symbol)
	}
	res := cr.Chart.Result[0]

	var closes []*float64
	if len(res.Indicators.AdjClose) > 0 {
		closes = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}

	s := Series{Symbol: symbol}
	for i, ts := range res.Timestamp {
		v := math.NaN()
		if i < len(closes) && closes[i] != nil {
			v = *closes[i]
		}
		s.Dates = append(s.Dates, Day(time.Unix(ts, 0).UTC()))
		s.Values = append(s.Values, v)
	}
	if len(s.Dates) == 0 {
		return Series{}, fmt.Errorf("chart: no observations for %s", symbol)
	}
	sortSeries(&s)
	return s, nil
}
