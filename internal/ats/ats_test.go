package ats

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/apperr"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		prov Provider
		slug string
		api  string
	}{
		{"https://boards.greenhouse.io/acme", true, Greenhouse, "acme", "https://boards-api.greenhouse.io/v1/boards/acme/jobs?content=true"},
		{"https://job-boards.greenhouse.io/acme/jobs/123", true, Greenhouse, "acme", "https://boards-api.greenhouse.io/v1/boards/acme/jobs?content=true"},
		{"https://jobs.lever.co/acme", true, Lever, "acme", "https://api.lever.co/v0/postings/acme?mode=json"},
		{"https://jobs.eu.lever.co/acme", true, Lever, "acme", "https://api.eu.lever.co/v0/postings/acme?mode=json"},
		{"https://jobs.smartrecruiters.com/Acme1", true, SmartRecruiters, "Acme1", "https://api.smartrecruiters.com/v1/companies/Acme1/postings?limit=100"},
		{"https://acme.wd5.myworkdayjobs.com/en-us/External", true, Workday, "acme", "https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/External/jobs?locale=en-US"},
		{"https://acme.wd1.myworkdayjobs.com/Careers/job/Remote/Engineer_R1", true, Workday, "acme", "https://acme.wd1.myworkdayjobs.com/wday/cxs/acme/Careers/jobs"},
		{"https://boards.greenhouse.io/", false, "", "", ""},
		{"https://acme.com/careers", false, "", "", ""},
		{"not a url", false, "", "", ""},
	}
	for _, tc := range cases {
		b, ok := Detect(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if !tc.ok {
			continue
		}
		assert.Equal(t, tc.prov, b.Provider, tc.in)
		assert.Equal(t, tc.slug, b.Slug, tc.in)
		assert.Equal(t, tc.api, b.APIURL(), tc.in)
	}
}

// rewrite sends every request to target, keeping the path and query.
type rewrite struct{ target *url.URL }

func (r rewrite) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c := New(Options{})
	c.hc.Transport = rewrite{target: u}
	return c
}

func TestProbeGreenhouse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/boards/acme/jobs", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jobs":[{"title":"Go Engineer","location":{"name":"Remote"},"absolute_url":"https://boards.greenhouse.io/acme/jobs/1"}]}`)
	})

	p, ok := c.Probe(context.Background(), "https://boards.greenhouse.io/acme")
	require.True(t, ok)
	assert.Equal(t, "https://boards-api.greenhouse.io/v1/boards/acme/jobs?content=true", p.URL)
	assert.Contains(t, string(p.Body), "Go Engineer")
	assert.Equal(t, http.StatusOK, p.Status)
}

func TestFetchWorkdayPosts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wday/cxs/acme/External/jobs", r.URL.Path)
		var body workdayRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 20, body.Limit)
		_, _ = io.WriteString(w, `{"total":1,"jobPostings":[{"title":"SRE","externalPath":"/job/Remote/SRE_R1"}]}`)
	})

	b, ok := Detect("https://acme.wd5.myworkdayjobs.com/External")
	require.True(t, ok)
	p, err := c.Fetch(context.Background(), b)
	require.NoError(t, err)
	assert.Contains(t, string(p.Body), "jobPostings")
}

func TestFetchClassifiesFailures(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v0/postings/gone" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "<html>not json</html>")
	})

	_, err := c.Fetch(context.Background(), Board{Provider: Lever, Slug: "gone", Host: "jobs.lever.co"})
	assert.Equal(t, apperr.KindUpstreamUnavailable, apperr.KindOf(err))

	_, err = c.Fetch(context.Background(), Board{Provider: Lever, Slug: "acme", Host: "jobs.lever.co"})
	assert.Equal(t, apperr.KindParseFailure, apperr.KindOf(err))

	_, err = c.Fetch(context.Background(), Board{Provider: "ashby"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, ok := c.Probe(context.Background(), "https://jobs.lever.co/gone")
	assert.False(t, ok)
}
