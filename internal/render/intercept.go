package render

import (
	"encoding/json"
	"net/url"
	"strings"
)

var payloadURLTokens = []string{
	"job",
	"career",
	"position",
	"opening",
	"posting",
	"vacanc",
	"requisition",
	"recruit",
	"greenhouse",
	"lever",
	"workday",
	"wday/cxs",
	"smartrecruiters",
	"ashby",
	"workable",
	"icims",
}

var signalKeys = map[string]bool{
	"title":         true,
	"jobtitle":      true,
	"department":    true,
	"departments":   true,
	"location":      true,
	"locations":     true,
	"locationstext": true,
	"apply_url":     true,
	"applyurl":      true,
	"absolute_url":  true,
	"hostedurl":     true,
	"externalpath":  true,
}

const maxSignalDepth = 6

// WantsResponse is the cheap pre-filter applied as responses stream in.
func WantsResponse(r Response) bool {
	if r.Status < 200 || r.Status > 299 {
		return false
	}
	if !strings.Contains(r.ContentType, "json") {
		return false
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return false
	}
	target := strings.ToLower(u.Host + u.Path)
	for _, t := range payloadURLTokens {
		if strings.Contains(target, t) {
			return true
		}
	}
	return false
}

// JobSignal scores a JSON body by how many job-ish field names it carries,
// plus 2 when it is an array or has a jobs/positions key. Unparseable is 0.
func JobSignal(body []byte) int {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return 0
	}

	score := 0
	switch t := v.(type) {
	case []any:
		score += 2
	case map[string]any:
		for k := range t {
			lk := strings.ToLower(k)
			if lk == "jobs" || lk == "positions" || lk == "jobpostings" {
				score += 2
				break
			}
		}
	}
	return score + countSignalKeys(v, 0)
}

func countSignalKeys(v any, depth int) int {
	if depth > maxSignalDepth {
		return 0
	}
	n := 0
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if signalKeys[strings.ToLower(k)] {
				n++
			}
			n += countSignalKeys(child, depth+1)
		}
	case []any:
		for _, child := range t {
			n += countSignalKeys(child, depth+1)
		}
	}
	return n
}
