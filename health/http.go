package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"
)

// Endpoint paths.
const (
	HealthPath   = "/healthcheck"
	LivenessPath = "/liveness"
)

// DefaultQueryTimeout bounds one collector query made for an HTTP request.
const DefaultQueryTimeout = 5 * time.Second

// Responder serves Collector results over HTTP.
//
// Concurrent requests for the same endpoint share one directory scan.
type Responder struct {
	collector *Collector
	timeout   time.Duration
	group     singleflight.Group
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithQueryTimeout bounds each collector query. The deadline is checked
// before each snapshot file is read, so a single stalled read is not
// interrupted. Zero disables the bound.
func WithQueryTimeout(d time.Duration) ResponderOption {
	return func(r *Responder) { r.timeout = d }
}

// NewResponder creates a Responder for collector.
func NewResponder(collector *Collector, opts ...ResponderOption) *Responder {
	r := &Responder{collector: collector, timeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type answer struct {
	ok   bool
	body any
}

// HealthHandler returns the /healthcheck handler: 200 with the HealthReport
// when every snapshot is healthy, 500 otherwise.
func (r *Responder) HealthHandler() http.HandlerFunc {
	return r.handler("health", func(ctx context.Context) answer {
		ok, report := r.collector.Health(ctx)
		return answer{ok: ok, body: report}
	})
}

// LivenessHandler returns the /liveness handler: 200 with the
// LivenessReport when every snapshot is live, 500 otherwise.
func (r *Responder) LivenessHandler() http.HandlerFunc {
	return r.handler("liveness", func(ctx context.Context) answer {
		ok, report := r.collector.Liveness(ctx)
		return answer{ok: ok, body: report}
	})
}

func (r *Responder) handler(key string, query func(context.Context) answer) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		v, _, _ := r.group.Do(key, func() (any, error) {
			// Detached from the request so one cancelled caller cannot fail
			// the others sharing the scan.
			ctx := context.WithoutCancel(req.Context())
			if r.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}
			return query(ctx), nil
		})
		a := v.(answer)

		w.Header().Set("Content-Type", "application/json")
		if a.ok {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(a.body)
	}
}

// RegisterHandlers registers GET /healthcheck and GET /liveness on mux.
func (r *Responder) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET "+HealthPath, r.HealthHandler())
	mux.HandleFunc("GET "+LivenessPath, r.LivenessHandler())
}

// Router returns a chi router serving both endpoints. Other paths get 404
// and other methods 405.
func (r *Responder) Router() chi.Router {
	router := chi.NewRouter()
	r.Mount(router)
	return router
}

// Mount adds both endpoints to an existing chi router.
func (r *Responder) Mount(router chi.Router) {
	router.Get(HealthPath, r.HealthHandler())
	router.Get(LivenessPath, r.LivenessHandler())
}
