package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsBodyAndStatus(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/careers":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<h1>Careers</h1>"))
		case "/old":
			http.Redirect(w, r, "/careers", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "test-agent", Limiter: util.NewHostLimiter(100, 10)})

	res, err := c.Get(context.Background(), srv.URL+"/careers")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "<h1>Careers</h1>", res.Body)
	assert.Contains(t, res.ContentType, "text/html")
	assert.Equal(t, "test-agent", ua)

	res, err = c.Get(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/careers", res.URL)

	res, err = c.Get(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestGetCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	c := New(Options{MaxBodyBytes: 10})
	res, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, res.Body, 10)
}

func TestGetTransportFailureIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Options{Timeout: 20 * time.Millisecond})
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestGetBadURLIsValidation(t *testing.T) {
	c := New(Options{})
	_, err := c.Get(context.Background(), "http://[::1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
