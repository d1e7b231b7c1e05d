package fxrate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.FXConfig{RootURL: srv.URL + "/v6/", APIKey: "test-key", Timeout: time.Second}, nil, zerolog.Nop())
}

func TestClient_Fetch_Success(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","base_code":"NGN","target_code":"USD","conversion_rate":0.0013}`))
	})

	rate, err := c.Fetch(context.Background(), "NGN", "USD")
	require.NoError(t, err)
	assert.Equal(t, "/v6/test-key/pair/NGN/USD", gotPath)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.0013")), "got %s", rate)
}

func TestClient_Fetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"non-200", http.StatusNotFound, `{"result":"error"}`, ports.ErrRateNotFound},
		{"server error", http.StatusInternalServerError, ``, ports.ErrRateNotFound},
		{"missing rate", http.StatusOK, `{"result":"success"}`, ports.ErrRateNotFound},
		{"zero rate", http.StatusOK, `{"result":"success","conversion_rate":0}`, ports.ErrRateNotFound},
		{"negative rate", http.StatusOK, `{"result":"success","conversion_rate":-2.5}`, ports.ErrRateNotFound},
		{"provider error", http.StatusOK, `{"result":"error","error-type":"unsupported-code"}`, ports.ErrRateNotFound},
		{"malformed body", http.StatusOK, `not json`, ports.ErrRateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Fetch(context.Background(), "NGN", "XXX")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.FXConfig{RootURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, nil, zerolog.Nop())

	_, err := c.Fetch(context.Background(), "NGN", "USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRateUnavailable)
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestClient_Fetch_TransportError(t *testing.T) {
	c := NewClient(config.FXConfig{RootURL: "http://fx.invalid", APIKey: "secret-key"}, failingDoer{}, zerolog.Nop())

	_, err := c.Fetch(context.Background(), "NGN", "USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRateUnavailable)
	assert.NotContains(t, err.Error(), "secret-key")
}
