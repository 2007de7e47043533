package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"jobscout-engine/internal/store"
)

type JobsHandler struct {
	Jobs JobLister
}

// List serves stored ranked jobs: ?sort=score|date|company|title&window=24h|7d|all&limit=N
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	jobs, err := h.Jobs.ListRankedJobs(r.Context(), store.ListJobsOpts{
		Sort:   q.Get("sort"),
		Window: q.Get("window"),
		Limit:  limit,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if jobs == nil {
		jobs = []store.StoredJob{}
	}
	WriteJSON(w, http.StatusOK, jobs)
}

type HistoryHandler struct {
	History History
}

type companyHistory struct {
	CareerPage *store.CareerPage    `json:"career_page"`
	Logs       []store.DiscoveryLog `json:"logs"`
}

// Company serves ?company_id=X&limit=N: the stored career page plus recent runs.
func (h HistoryHandler) Company(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("company_id"))
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "company_id is required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	var out companyHistory
	page, ok, err := h.History.GetCareerPage(r.Context(), id)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if ok {
		out.CareerPage = &page
	}
	out.Logs, err = h.History.GetDiscoveryLogs(r.Context(), id, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if out.Logs == nil {
		out.Logs = []store.DiscoveryLog{}
	}
	WriteJSON(w, http.StatusOK, out)
}

type CacheHandler struct {
	Cache CacheAdmin
}

func (h CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Cache.CacheStats(r.Context()))
}

func (h CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Cache.ClearCache(r.Context()); err != nil {
		WriteError(w, r, http.StatusBadGateway, "cache_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}
