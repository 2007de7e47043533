package domain

// CapturedPayload is a JSON body intercepted from a job-data API response.
type CapturedPayload struct {
	URL         string `json:"url"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"-"`
	Signal      int    `json:"signal"`
}

// RawPageContent is the output of one render call. Never mutated after creation.
type RawPageContent struct {
	SourceURL        string            `json:"source_url"`
	StaticHTML       string            `json:"-"`
	RenderedHTML     string            `json:"-"`
	Screenshot       []byte            `json:"-"`
	CapturedPayloads []CapturedPayload `json:"captured_payloads,omitempty"`
	RequiresBrowser  bool              `json:"requires_browser"`
	BrowserUsed      bool              `json:"browser_used"`
	Success          bool              `json:"success"`
	Error            string            `json:"error,omitempty"`
}

// HTML returns the rendered DOM when present, else the static HTML.
func (c RawPageContent) HTML() string {
	if c.RenderedHTML != "" {
		return c.RenderedHTML
	}
	return c.StaticHTML
}

// Empty reports whether there is nothing any strategy could work on.
func (c RawPageContent) Empty() bool {
	return c.HTML() == "" && len(c.CapturedPayloads) == 0 && len(c.Screenshot) == 0
}
