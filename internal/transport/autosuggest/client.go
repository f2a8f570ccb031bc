package autosuggest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/domain/keyword"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
)

// DefaultBaseURL is the public search suggestion endpoint.
const DefaultBaseURL = "https://suggestqueries.google.com/complete/search"

const maxBodyBytes = 1 << 20

// symbolPatterns are the question and comparison modifiers of the symbol expansion.
var symbolPatterns = []string{
	"how %s", "what %s", "why %s", "where %s", "best %s",
	"%s vs", "%s for", "%s with", "%s without", "%s near me",
}

// Client fetches search engine autosuggest completions.
type Client struct {
	http        *http.Client
	baseURL     string
	client      string
	concurrency int
	alphabet    bool
	symbols     bool
	logger      *zap.Logger
}

// Config holds the autosuggest client settings.
type Config struct {
	BaseURL     string
	Client      string // suggest "client" parameter, firefox returns plain JSON
	Timeout     time.Duration
	Concurrency int
	Alphabet    bool // expand every seed alphabetically, regardless of the request
	Symbols     bool // expand every seed with symbol modifiers, regardless of the request
	Logger      *zap.Logger
}

// New creates an autosuggest client.
func New(cfg *Config) *Client {
	c := &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		client:      cfg.Client,
		concurrency: cfg.Concurrency,
		alphabet:    cfg.Alphabet,
		symbols:     cfg.Symbols,
		logger:      cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.client == "" {
		c.client = "firefox"
	}
	if c.concurrency <= 0 {
		c.concurrency = 4
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = 5 * time.Second
	}
	return c
}

// Autosuggest returns the completions for the seed and, when enabled, for its
// alphabet and symbol expansions. The seed request must succeed; expansion
// failures are logged and skipped.
func (c *Client) Autosuggest(ctx context.Context, req domain.AutosuggestRequest) ([]string, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("autosuggest: empty query: %w", domain.ErrInvalidInput)
	}
	engine := normalizeEngine(req.Engine)

	seed, err := c.fetch(ctx, query, req.Region, req.Language, engine)
	if err != nil {
		return nil, err
	}

	expansions := Expansions(query, req.Alphabet || c.alphabet, req.Symbols || c.symbols)
	if len(expansions) == 0 {
		return keyword.UniqueStrings(seed), nil
	}

	results := make([][]string, len(expansions))
	var failed int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, q := range expansions {
		g.Go(func() error {
			out, err := c.fetch(gctx, q, req.Region, req.Language, engine)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	if failed > 0 {
		c.logger.Warn("Some autosuggest expansions failed",
			zap.String("query", query),
			zap.Int("failed", failed),
			zap.Int("total", len(expansions)),
		)
	}

	all := seed
	for _, r := range results {
		all = append(all, r...)
	}
	return keyword.UniqueStrings(all), nil
}

// Expansions returns the derived queries: "<seed> a".."<seed> z" and the symbol modifiers.
func Expansions(query string, alphabet, symbols bool) []string {
	var out []string
	if alphabet {
		for r := 'a'; r <= 'z'; r++ {
			out = append(out, query+" "+string(r))
		}
	}
	if symbols {
		for _, p := range symbolPatterns {
			out = append(out, fmt.Sprintf(p, query))
		}
	}
	return out
}

func normalizeEngine(engine string) string {
	if strings.EqualFold(engine, "youtube") {
		return "youtube"
	}
	return "google"
}

func (c *Client) fetch(ctx context.Context, query, region, language, engine string) ([]string, error) {
	params := url.Values{}
	params.Set("client", c.client)
	params.Set("q", query)
	params.Set("ie", "utf-8")
	params.Set("oe", "utf-8")
	if language != "" {
		params.Set("hl", language)
	}
	if region != "" {
		params.Set("gl", region)
	}
	if engine == "youtube" {
		params.Set("ds", "yt")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("autosuggest request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.SuggestRequestsTotal.WithLabelValues(engine, "error").Inc()
		return nil, fmt.Errorf("autosuggest %q: %w: %w", query, err, domain.ErrSuggestProviderError)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.SuggestRequestsTotal.WithLabelValues(engine, "error").Inc()
		return nil, fmt.Errorf("autosuggest read: %w: %w", err, domain.ErrSuggestProviderError)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.SuggestRequestsTotal.WithLabelValues(engine, "error").Inc()
		wrap := domain.ErrSuggestProviderError
		if resp.StatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return nil, fmt.Errorf("autosuggest status %d: %w", resp.StatusCode, wrap)
	}

	out, err := parseSuggestions(body)
	if err != nil {
		metrics.SuggestRequestsTotal.WithLabelValues(engine, "error").Inc()
		return nil, err
	}
	metrics.SuggestRequestsTotal.WithLabelValues(engine, "success").Inc()
	return out, nil
}

// parseSuggestions decodes the ["query", ["s1", "s2", ...], ...] response shape.
func parseSuggestions(body []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) < 2 {
		return nil, fmt.Errorf("autosuggest: unexpected response: %w", domain.ErrSuggestProviderError)
	}
	var list []string
	if err := json.Unmarshal(raw[1], &list); err != nil {
		return nil, fmt.Errorf("autosuggest: unexpected suggestion list: %w", domain.ErrSuggestProviderError)
	}
	return list, nil
}
