package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPAPILookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/104.16.132.229/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"104.16.132.229","asn":"AS13335","org":"CLOUDFLARENET","country":"US"}`))
	}))
	defer srv.Close()

	src := NewIPAPI(srv.URL, srv.Client(), nil)
	res, err := src.Lookup(context.Background(), "104.16.132.229")
	require.NoError(t, err)
	assert.Equal(t, Result{ASN: "AS13335", Org: "CLOUDFLARENET"}, res)
}

func TestIPAPIErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
	}))
	defer srv.Close()

	_, err := NewIPAPI(srv.URL, srv.Client(), nil).Lookup(context.Background(), "192.0.2.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEnrichmentUnavailable)
	assert.Contains(t, err.Error(), "RateLimited")
}

func TestIPAPIBadStatusAndBody(t *testing.T) {
	status := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer status.Close()

	_, err := NewIPAPI(status.URL, status.Client(), nil).Lookup(context.Background(), "192.0.2.1")
	assert.ErrorIs(t, err, ErrEnrichmentUnavailable)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>nope</html>`))
	}))
	defer garbage.Close()

	_, err = NewIPAPI(garbage.URL, garbage.Client(), nil).Lookup(context.Background(), "192.0.2.1")
	assert.ErrorIs(t, err, ErrEnrichmentUnavailable)
}

func TestIPAPIRejectsInvalidAddress(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	_, err := NewIPAPI(srv.URL, srv.Client(), nil).Lookup(context.Background(), "999.1.1.1")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.False(t, hit)
}

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.True(t, l.Allow())

	l = NewLimiter(1, 1)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
