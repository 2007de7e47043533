package httpapi

import "net/http"

// NewMux wires the ops routes.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics)
	}

	if d.Jobs != nil {
		jh := JobsHandler{Jobs: d.Jobs}
		mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: jh.List,
		}))
	}

	if d.History != nil {
		hh := HistoryHandler{History: d.History}
		mux.HandleFunc("/history", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: hh.Company,
		}))
	}

	if d.Cache != nil {
		ch := CacheHandler{Cache: d.Cache}
		mux.HandleFunc("/cache", methodMux(map[string]http.HandlerFunc{
			http.MethodGet:    ch.Stats,
			http.MethodDelete: ch.Clear,
		}))
	}

	if d.Runner != nil {
		sh := StatusHandler{Runner: d.Runner}
		mux.HandleFunc("/status", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: sh.Status,
		}))
	}

	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	return mux
}

// NewHandler is NewMux behind the standard middleware chain.
func NewHandler(d Deps) http.Handler {
	return Chain(NewMux(d), RequestID, Recover(d.Log), AccessLog(d.Log))
}
