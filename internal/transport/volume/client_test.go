package volume

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func newTestClient(url, country string) *Client {
	return New(&Config{BaseURL: url, APIKey: "vol-key", Country: country, Logger: zap.NewNop()})
}

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer vol-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, []string{"matcha latte", "matcha cake"}, r.PostForm["kw[]"])
		require.Equal(t, "gb", r.PostForm.Get("country"))
		require.Equal(t, "usd", r.PostForm.Get("currency"))
		require.Equal(t, "gkp", r.PostForm.Get("dataSource"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"keyword": "matcha latte", "vol": 1200, "cpc": {"currency": "$", "value": "1.25"}, "competition": 0.4},
			{"keyword": "matcha cake", "vol": 0, "cpc": {"currency": "$", "value": null}, "competition": null},
			{"keyword": " ", "vol": 5}
		], "credits": 990}`))
	}))
	defer server.Close()

	items, err := newTestClient(server.URL, "").Lookup(context.Background(), domain.VolumeRequest{
		Keywords: []string{"matcha latte", "matcha cake"},
		Region:   "GB",
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "matcha latte", items[0].Text)
	require.Equal(t, int64(1200), items[0].SearchVolume)
	require.NotNil(t, items[0].CPC)
	require.InDelta(t, 1.25, *items[0].CPC, 1e-9)
	require.NotNil(t, items[0].Competition)

	require.Equal(t, int64(0), items[1].SearchVolume)
	require.Nil(t, items[1].CPC)
	require.Nil(t, items[1].Competition)
}

func TestLookup_FixedCountry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "us", r.PostForm.Get("country"))
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	items, err := newTestClient(server.URL, "us").Lookup(context.Background(), domain.VolumeRequest{
		Keywords: []string{"a"}, Region: "de",
	})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestLookup_EmptyInput(t *testing.T) {
	items, err := newTestClient("http://unused", "").Lookup(context.Background(), domain.VolumeRequest{})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestLookup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"message": "slow down"}`, domain.ErrRateLimited},
		{"no credits", http.StatusPaymentRequired, `{"message": "out of credits"}`, domain.ErrQuotaExceeded},
		{"server error", http.StatusInternalServerError, `oops`, domain.ErrVolumeProviderError},
		{"bad json", http.StatusOK, `{"data": [`, domain.ErrVolumeProviderError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, "").Lookup(context.Background(), domain.VolumeRequest{Keywords: []string{"a"}})
			require.ErrorIs(t, err, tc.want)
		})
	}
}
