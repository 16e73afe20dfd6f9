package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/etnz/tracker"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradegateQuote(t *testing.T) {
	payloads := map[string]string{
		"DE0007164600": `{"last":"123,45","bid":"123,40","bidsize":10}`,
		"US0378331005": `{"last":"./.","bid":"201,5","bidsize":10}`,
		"FR0000120271": `{"last":57.25}`,
		"NL0010273215": `{"last":"./.","bid":0,"bidsize":0}`,
		"IE00B4L5Y983": `{"last":"n/a"}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refresh.php", r.URL.Path)
		payload, ok := payloads[r.URL.Query().Get("isin")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	tg := &Tradegate{
		Client:  server.Client(),
		BaseURL: server.URL + "/refresh.php",
		ISIN:    map[string]string{"SAP": "DE0007164600", "AAPL": "US0378331005"},
	}

	testCases := []struct {
		symbol   string
		want     string
		wantKind tracker.QuoteErrorKind
		wantErr  bool
	}{
		{symbol: "SAP", want: "123.45"},
		{symbol: "AAPL", want: "201.5"},         // last is empty, use the bid
		{symbol: "FR0000120271", want: "57.25"}, // ISIN used as a symbol
		{symbol: "NL0010273215", wantErr: true, wantKind: tracker.QuoteNotFound},
		{symbol: "IE00B4L5Y983", wantErr: true, wantKind: tracker.QuoteUnknown},
		{symbol: "DE0000000009", wantErr: true, wantKind: tracker.QuoteNotFound}, // 404
		{symbol: "UNKNOWN", wantErr: true, wantKind: tracker.QuoteNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.symbol, func(t *testing.T) {
			got, err := tg.Quote(context.Background(), tc.symbol)
			if tc.wantErr {
				var qe *tracker.QuoteError
				require.ErrorAs(t, err, &qe)
				assert.Equal(t, tc.wantKind, qe.Kind)
				assert.Equal(t, tc.symbol, qe.Symbol)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "Quote() = %v, want %v", got, tc.want)
		})
	}
}

func TestTradegateClassification(t *testing.T) {
	testCases := []struct {
		name     string
		handler  http.HandlerFunc
		timeout  time.Duration
		wantKind tracker.QuoteErrorKind
	}{
		{
			name:     "rate limited",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			wantKind: tracker.QuoteRateLimited,
		},
		{
			name:     "server error",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantKind: tracker.QuoteUnknown,
		},
		{
			name: "slow server",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			timeout:  50 * time.Millisecond,
			wantKind: tracker.QuoteTimeout,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			ctx := context.Background()
			if tc.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tc.timeout)
				defer cancel()
			}
			tg := &Tradegate{Client: server.Client(), BaseURL: server.URL}
			_, err := tg.Quote(ctx, "DE0007164600")

			var qe *tracker.QuoteError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tc.wantKind, qe.Kind)
			assert.ErrorIs(t, err, tracker.ErrQuote)
		})
	}
}

func TestLooksLikeISIN(t *testing.T) {
	assert.True(t, looksLikeISIN("US0378331005"))
	assert.True(t, looksLikeISIN("IE00B4L5Y983"))
	assert.False(t, looksLikeISIN("AAPL"))
	assert.False(t, looksLikeISIN("us0378331005"))
	assert.False(t, looksLikeISIN("US037833100X"))
}
