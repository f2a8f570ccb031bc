package volume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
)

// DefaultBaseURL is the keyword data endpoint.
const DefaultBaseURL = "https://api.keywordseverywhere.com/v1/get_keyword_data"

const maxBodyBytes = 4 << 20

// Client looks up search volume, CPC and competition for keyword batches.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	country    string
	currency   string
	dataSource string
	logger     *zap.Logger
}

// Config holds the volume provider settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Country    string // fixed country; empty uses the request region
	Currency   string
	DataSource string // gkp or cli
	Timeout    time.Duration
	Logger     *zap.Logger
}

// New creates a volume lookup client.
func New(cfg *Config) *Client {
	c := &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		country:    cfg.Country,
		currency:   cfg.Currency,
		dataSource: cfg.DataSource,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.currency == "" {
		c.currency = "usd"
	}
	if c.dataSource == "" {
		c.dataSource = "gkp"
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = 30 * time.Second
	}
	return c
}

type response struct {
	Data []struct {
		Keyword     string   `json:"keyword"`
		Vol         optFloat `json:"vol"`
		Competition optFloat `json:"competition"`
		CPC         struct {
			Currency string   `json:"currency"`
			Value    optFloat `json:"value"`
		} `json:"cpc"`
	} `json:"data"`
	Credits optFloat `json:"credits"`
}

// Lookup implements domain.VolumeLookup with one POST for the whole batch.
func (c *Client) Lookup(ctx context.Context, req domain.VolumeRequest) ([]keyword.Item, error) {
	if len(req.Keywords) == 0 {
		return []keyword.Item{}, nil
	}

	form := url.Values{}
	form.Set("country", c.countryFor(req.Region))
	form.Set("currency", c.currency)
	form.Set("dataSource", c.dataSource)
	for _, kw := range req.Keywords {
		form.Add("kw[]", kw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("volume request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		metrics.VolumeRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("volume lookup: %w: %w", err, domain.ErrVolumeProviderError)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.VolumeRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("volume read: %w: %w", err, domain.ErrVolumeProviderError)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.VolumeRequestsTotal.WithLabelValues("error").Inc()
		return nil, apiError(resp.StatusCode, body)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.VolumeRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("volume decode: %w: %w", err, domain.ErrVolumeProviderError)
	}

	metrics.VolumeRequestsTotal.WithLabelValues("success").Inc()
	metrics.VolumeRequestDuration.Observe(duration.Seconds())
	metrics.VolumeKeywordsTotal.Add(float64(len(req.Keywords)))

	items := make([]keyword.Item, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		text := strings.TrimSpace(d.Keyword)
		if text == "" {
			continue
		}
		it := keyword.Item{Text: text, SearchVolume: int64(d.Vol.val)}
		if d.Competition.set {
			v := d.Competition.val
			it.Competition = &v
		}
		if d.CPC.Value.set {
			v := d.CPC.Value.val
			it.CPC = &v
		}
		items = append(items, it)
	}

	c.logger.Debug("Volume lookup completed",
		zap.Int("keywords", len(req.Keywords)),
		zap.Int("results", len(items)),
		zap.Bool("from_url", req.SourceURL != ""),
		zap.Float64("credits_left", parsed.Credits.val),
		zap.Duration("duration", duration),
	)
	return items, nil
}

func (c *Client) countryFor(region string) string {
	if c.country != "" {
		return c.country
	}
	return strings.ToLower(region)
}

func apiError(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	detail := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			detail = parsed.Message
		} else if parsed.Error != "" {
			detail = parsed.Error
		}
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("volume API error %d: %s: %w", status, detail, domain.ErrRateLimited)
	case http.StatusPaymentRequired:
		return fmt.Errorf("volume API error %d: %s: %w", status, detail, domain.ErrQuotaExceeded)
	default:
		return fmt.Errorf("volume API error %d: %s: %w", status, detail, domain.ErrVolumeProviderError)
	}
}

// optFloat accepts a JSON number, a numeric string or null.
type optFloat struct {
	val float64
	set bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *optFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	f.val, f.set = v, true
	return nil
}
