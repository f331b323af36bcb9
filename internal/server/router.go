package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/f-sync/unfollow/internal/hiddenstore"
	"github.com/f-sync/unfollow/internal/metrics"
	"github.com/f-sync/unfollow/internal/report"
)

const (
	indexRoutePath         = "/"
	uploadRoutePath        = "/analyses"
	analysisRoutePath      = "/analyses/:id"
	hideRoutePath          = "/analyses/:id/hide"
	resetRoutePath         = "/analyses/:id/reset"
	exportRoutePath        = "/analyses/:id/export.csv"
	apiUploadRoutePath     = "/api/analyses"
	healthRoutePath        = "/healthz"
	metricsRoutePath       = "/metrics"
	staticRoutePath        = "/static"
	htmlContentType        = "text/html; charset=utf-8"
	healthStatusKey        = "status"
	healthStatusOK         = "ok"
	ginModeRelease         = "release"
	defaultMaxUploadBytes  = 256 << 20
	errMessageStaticAssets = "load static assets"
	errMessageCache        = "create analysis cache"
	errMessageRateLimiter  = "create upload rate limiter"
)

// RouterConfig configures the HTTP routing for the local analyzer UI.
type RouterConfig struct {
	Logger      *zap.Logger
	HiddenStore *hiddenstore.Store
	// Metrics and MetricsGatherer default to a private Prometheus registry.
	Metrics         metrics.Recorder
	MetricsGatherer prometheus.Gatherer
	CacheSize       int
	MaxUploadBytes  int64
	// UploadRate is the sustained number of uploads per second allowed per client; zero disables the limit.
	UploadRate  float64
	UploadBurst int
}

// NewRouter constructs a Gin engine serving the upload, report, export, API and health handlers.
func NewRouter(configuration RouterConfig) (*gin.Engine, error) {
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := configuration.HiddenStore
	if store == nil {
		store = hiddenstore.NewMemory()
	}
	recorder := configuration.Metrics
	gatherer := configuration.MetricsGatherer
	if recorder == nil {
		registry := prometheus.NewRegistry()
		recorder = metrics.NewCollector(registry)
		gatherer = registry
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	maxUploadBytes := configuration.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	cache, err := newAnalysisCache(configuration.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMessageCache, err)
	}
	limiter, err := newClientRateLimiter(configuration.UploadRate, configuration.UploadBurst)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMessageRateLimiter, err)
	}
	staticAssets, err := report.StaticAssets()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errMessageStaticAssets, err)
	}

	gin.SetMode(ginModeRelease)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	handler := analysisHandler{
		cache:          cache,
		store:          store,
		metrics:        recorder,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
	pageUploadLimit := limiter.middleware(logger, handler.rejectUploadPage)
	apiUploadLimit := limiter.middleware(logger, rejectUploadJSON)

	engine.GET(indexRoutePath, handler.serveIndex)
	engine.POST(uploadRoutePath, pageUploadLimit, handler.uploadArchive)
	engine.GET(analysisRoutePath, handler.serveAnalysis)
	engine.POST(hideRoutePath, handler.hideIdentifier)
	engine.POST(resetRoutePath, handler.resetHidden)
	engine.GET(exportRoutePath, handler.exportList)
	engine.POST(apiUploadRoutePath, apiUploadLimit, handler.uploadArchiveAPI)
	engine.GET(healthRoutePath, handler.healthStatus)
	engine.GET(metricsRoutePath, gin.WrapH(metrics.Handler(gatherer)))
	engine.StaticFS(staticRoutePath, http.FS(staticAssets))

	return engine, nil
}

func (handler analysisHandler) healthStatus(ginContext *gin.Context) {
	ginContext.JSON(http.StatusOK, map[string]string{healthStatusKey: healthStatusOK})
}
