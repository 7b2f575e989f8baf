package api

import (
	"io/fs"
	"manifest-service/internal/api/handlers"
	"manifest-service/internal/services"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Options configures the outer HTTP middleware.
type Options struct {
	// Zero disables rate limiting.
	RateLimitRPS float64
	CORSOrigins  []string
	// Nil leaves /metrics unrouted.
	Gatherer prometheus.Gatherer
	// Directory served under /pod/; empty disables it.
	PODDir string
}

// NewRouter registers the trip, invoice and operational routes and wraps them
// in rate limiting, CORS and access logging.
func NewRouter(trips *services.TripService, invoices *services.InvoiceService, opts Options) http.Handler {
	router := httprouter.New()

	th := &handlers.TripHandler{Trips: trips}
	ih := &handlers.InvoiceHandler{Invoices: invoices}

	router.GET("/health", handlers.Health)

	router.POST("/trips", th.Create)
	router.GET("/trips", th.List)
	router.GET("/trips/:id", th.Get)
	router.PUT("/trips/:id", th.Update)
	router.POST("/trips/:id/status", th.AdvanceStatus)
	router.POST("/trips/:id/pod", th.UploadPOD)
	router.PUT("/trips/:id/pod-url", th.SetPODURL)
	router.POST("/trips/:id/invoice", ih.Generate)
	router.POST("/trip-requests", th.PlanFromRequest)
	router.POST("/stops/:id/status", th.UpdateStopStatus)

	router.GET("/invoices/:id", ih.Get)
	router.PUT("/invoices/:id", ih.Update)
	router.POST("/invoices/:id/status", ih.AdvanceStatus)
	router.GET("/invoices/:id/pdf", ih.PDF)

	if opts.Gatherer != nil {
		router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.PODDir != "" {
		router.ServeFiles("/pod/*filepath", podFiles{http.Dir(opts.PODDir)})
	}

	var h http.Handler = router
	if opts.RateLimitRPS > 0 {
		h = newRateLimiter(opts.RateLimitRPS).middleware(h)
	}
	if len(opts.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
		}).Handler(h)
	}
	return loggingMiddleware(h)
}

// podFiles serves stored POD files only. Directories report as missing so
// trip folders cannot be listed.
type podFiles struct {
	root http.FileSystem
}

func (p podFiles) Open(name string) (http.File, error) {
	f, err := p.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
