package locate

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"jobscout-engine/internal/apperr"
	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/fetch"
	"jobscout-engine/internal/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const careersPage = `<html><head><title>Careers at Acme</title></head><body>
<h1>Careers</h1>
<p>careers careers careers careers careers careers careers careers careers</p>
<p>Apply Apply Apply Apply Apply</p>
<a href="/jobs/1234">Backend Engineer</a>
</body></html>`

const weakPage = `<html><body><h1>About Acme</h1><p>We have careers.</p></body></html>`

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	fail  error // returned for every unknown URL when set
	calls int
}

func (f *fakeFetcher) Get(_ context.Context, u string) (fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[u]; ok {
		return fetch.Response{}, err
	}
	if body, ok := f.pages[u]; ok {
		return fetch.Response{URL: u, Status: http.StatusOK, ContentType: "text/html", Body: body}, nil
	}
	if f.fail != nil {
		return fetch.Response{}, f.fail
	}
	return fetch.Response{URL: u, Status: http.StatusNotFound}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var acme = domain.CompanyTarget{ID: "c1", Name: "Acme", WebsiteURL: "https://acme.com"}

func TestLocatePatternMatchingSkipsOracle(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://acme.com/careers": careersPage}}
	o := &oracle.Fake{}

	l := New(Options{}, f, o, nil, nil, nil)
	r := l.Locate(context.Background(), acme)

	assert.Equal(t, domain.MethodPatternMatching, r.Method)
	assert.Equal(t, "https://acme.com/careers", r.URL)
	assert.InDelta(t, 0.8, r.Confidence, 1e-9)
	assert.Equal(t, "c1", r.CompanyID)
	assert.Empty(t, r.Error)
	assert.Zero(t, o.CallCount())
}

func TestLocateCacheIsIdempotent(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://acme.com/careers": careersPage}}
	o := &oracle.Fake{}
	l := New(Options{}, f, o, nil, nil, nil)

	first := l.Locate(context.Background(), acme)
	calls := f.callCount()

	second := l.Locate(context.Background(), acme)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, f.callCount())
	assert.Zero(t, o.CallCount())

	st := l.CacheStats(context.Background())
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)

	require.NoError(t, l.ClearCache(context.Background()))
	l.Locate(context.Background(), acme)
	assert.Greater(t, f.callCount(), calls)
}

func TestLocateAlternatesExcludeChosen(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://acme.com/careers":        careersPage,
		"https://acme.com/jobs":           weakPage,
		"https://boards.greenhouse.io/acme": weakPage,
	}}
	l := New(Options{}, f, nil, nil, nil, nil)
	r := l.Locate(context.Background(), acme)

	assert.Equal(t, "https://acme.com/careers", r.URL)
	assert.ElementsMatch(t, []string{"https://acme.com/jobs", "https://boards.greenhouse.io/acme"}, r.Alternates)
}

func TestLocateEscalatesToOracle(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://acme.com/careers":      weakPage,
		"https://acme.example.org/open": careersPage,
	}}
	o := &oracle.Fake{Reply: func(prompt string, _ []byte) (string, error) {
		assert.Contains(t, prompt, "Acme")
		return "URL: https://acme.example.org/open\nCONFIDENCE: 0.9\nREASONING: hosted board", nil
	}}

	l := New(Options{}, f, o, nil, nil, nil)
	r := l.Locate(context.Background(), acme)

	assert.Equal(t, 1, o.CallCount())
	assert.Equal(t, domain.MethodOracle, r.Method)
	assert.Equal(t, "https://acme.example.org/open", r.URL)
	assert.InDelta(t, 0.8, r.Confidence, 1e-9)
	assert.Contains(t, r.Reasoning, "hosted board")
	assert.Contains(t, r.Alternates, "https://acme.com/careers")
}

func TestLocateKeepsPatternBestWhenOracleIsWorse(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://acme.com/careers": weakPage}}
	o := &oracle.Fake{Reply: func(string, []byte) (string, error) {
		return "URL: https://acme.com/nowhere\nCONFIDENCE: 0.9\nREASONING: guess", nil
	}}

	l := New(Options{}, f, o, nil, nil, nil)
	r := l.Locate(context.Background(), acme)

	assert.Equal(t, domain.MethodPatternMatching, r.Method)
	assert.Equal(t, "https://acme.com/careers", r.URL)
	assert.Less(t, r.Confidence, 0.5)
}

func TestLocateOracleErrorIsSwallowed(t *testing.T) {
	f := &fakeFetcher{}
	o := &oracle.Fake{Reply: func(string, []byte) (string, error) {
		return "", apperr.Upstream("oracle.Generate", errors.New("503"))
	}}

	l := New(Options{}, f, o, nil, nil, nil)
	r := l.Locate(context.Background(), acme)

	assert.Equal(t, domain.MethodNone, r.Method)
	assert.Zero(t, r.Confidence)
	assert.Empty(t, r.URL)
	assert.NotEmpty(t, r.Error)
}

func TestLocateNetworkFailureIsMethodError(t *testing.T) {
	f := &fakeFetcher{fail: apperr.Upstream("fetch.Get", errors.New("dial tcp: no route"))}
	l := New(Options{}, f, nil, nil, nil, nil)

	r := l.Locate(context.Background(), acme)
	assert.Equal(t, domain.MethodError, r.Method)
	assert.Zero(t, r.Confidence)
	assert.Contains(t, r.Error, "no route")

	// errors are not cached
	l.Locate(context.Background(), acme)
	assert.Equal(t, int64(2), l.CacheStats(context.Background()).Misses)
}

func TestLocateRejectsEmptyCompany(t *testing.T) {
	f := &fakeFetcher{}
	l := New(Options{}, f, nil, nil, nil, nil)

	r := l.Locate(context.Background(), domain.CompanyTarget{ID: "x"})
	assert.Equal(t, domain.MethodError, r.Method)
	assert.Contains(t, r.Error, "neither name nor website")
	assert.Zero(t, f.callCount())
}

type knownPages map[string]string

func (k knownPages) KnownCareerPage(_ context.Context, id string) (string, bool, error) {
	u, ok := k[id]
	return u, ok, nil
}

func TestLocateRevalidatesKnownPage(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://jobs.lever.co/acme": careersPage}}
	l := New(Options{}, f, nil, nil, knownPages{"c1": "https://jobs.lever.co/acme"}, nil)

	r := l.Locate(context.Background(), acme)
	assert.Equal(t, domain.MethodCached, r.Method)
	assert.Equal(t, "https://jobs.lever.co/acme", r.URL)
	assert.Equal(t, 1, f.callCount())
}

func TestLocateSearchesDomainWhenWebsiteMissing(t *testing.T) {
	search := `<html><body>
<a class="result__a" href="https://www.linkedin.com/company/acme">LinkedIn</a>
<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.acme.io%2F">Acme</a>
</body></html>`
	f := &fakeFetcher{pages: map[string]string{
		"https://search.test/html/?q=Acme+official+website": search,
		"https://acme.io/careers":                            careersPage,
	}}

	l := New(Options{SearchURL: "https://search.test/html/"}, f, nil, nil, nil, nil)
	r := l.Locate(context.Background(), domain.CompanyTarget{ID: "c2", Name: "Acme Inc."})

	assert.Equal(t, "https://acme.io/careers", r.URL)
	assert.Equal(t, domain.MethodPatternMatching, r.Method)
}

func TestCandidates(t *testing.T) {
	got := Candidates(acme, []string{"careers", "/careers", "/jobs"}, []string{"https://jobs.lever.co/{slug}", "no-slug.example"})
	assert.Equal(t, []string{
		"https://acme.com/careers",
		"https://acme.com/jobs",
		"https://careers.acme.com",
		"https://jobs.acme.com",
		"https://jobs.lever.co/acme",
	}, got)

	noSite := Candidates(domain.CompanyTarget{Name: "Big Co"}, nil, nil)
	require.NotEmpty(t, noSite)
	assert.Equal(t, "https://boards.greenhouse.io/bigco", noSite[0])
}

func TestContentScore(t *testing.T) {
	assert.InDelta(t, 0.8, ContentScore(careersPage), 1e-9)
	assert.Zero(t, ContentScore(""))
	assert.Less(t, ContentScore(weakPage), 0.5)

	scripty := `<html><body><script>var careers="careers careers careers careers careers careers careers careers careers careers";</script></body></html>`
	assert.Zero(t, ContentScore(scripty))

	full := careersPage + `<a href="https://boards.greenhouse.io/acme/jobs/99999">x</a><a href="?gh_jid=77">y</a>`
	assert.InDelta(t, 1.0, ContentScore(full), 1e-9)
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	r := domain.CareerPageResult{URL: "u", Alternates: []string{"a"}, DiscoveredAt: now, TTL: time.Hour}
	c.Set(context.Background(), "k", r)

	got, ok := c.Get(context.Background(), "k")
	require.True(t, ok)
	got.Alternates[0] = "mutated"
	again, _ := c.Get(context.Background(), "k")
	assert.Equal(t, "a", again.Alternates[0])

	now = now.Add(2 * time.Hour)
	_, ok = c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Zero(t, c.Len(context.Background()))
}

func TestCacheKeyIgnoresCaseAndTracking(t *testing.T) {
	a := CacheKey(domain.CompanyTarget{Name: "Acme", WebsiteURL: "https://ACME.com/?utm_source=x"})
	b := CacheKey(domain.CompanyTarget{Name: " acme ", WebsiteURL: "https://acme.com"})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "acme|"))
}
