package runnable

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"storefront-e2e/internal/config"
	diffimage "storefront-e2e/internal/diff/image"
	"storefront-e2e/internal/logging"
	"storefront-e2e/internal/myhttp"
	"storefront-e2e/internal/routes"
	"storefront-e2e/internal/storage"
	"syscall"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	pyroscopepprof "github.com/grafana/pyroscope-go/http/pprof"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/net/netutil"
	"golang.org/x/xerrors"
)

const applicationName = "storefront-diff-server"

// Server serves image comparison, report summaries and baselines over HTTP.
type Server struct {
	address                string
	terminationGracePeriod time.Duration
	lameduck               time.Duration
	keepAlive              bool
	maxConnections         int
	threshold              float64
	store                  storage.Storage
	clock                  func() time.Time
}

func NewServer(store storage.Storage) *Server {
	return &Server{
		address:                config.EnvOrDefaultValue("ADDRESS", "0.0.0.0:8383"),
		terminationGracePeriod: config.EnvOrDefaultValue("TERMINATION_GRACE_PERIOD", 10*time.Second),
		lameduck:               config.EnvOrDefaultValue("LAMEDUCK", 1*time.Second),
		keepAlive:              config.EnvOrDefaultValue("HTTP_KEEPALIVE", true),
		maxConnections:         config.EnvOrDefaultValue("MAX_CONNECTIONS", 65532),
		threshold:              config.EnvOrDefaultValue("THRESHOLD", diffimage.DefaultThreshold),
		store:                  store,
		clock:                  time.Now,
	}
}

var Debug = false

// Handler wires every route. It is separate from Start so the routing can be
// served without telemetry.
func (s *Server) Handler(logger *slog.Logger, httpRequestsDurationMicroSeconds metric.Int64Histogram) http.Handler {
	mux := myhttp.NewServerMux(logger, httpRequestsDurationMicroSeconds)

	mux.HandleFuncWithMiddleware("POST /compare", routes.Compare(s.store, s.threshold))
	mux.HandleFuncWithMiddleware("POST /summarize", routes.Summarize(s.clock))
	mux.HandleFuncWithMiddleware("GET /baselines/{$}", routes.ListBaselines(s.store))
	mux.HandleFuncWithMiddleware("GET /baselines/{name...}", routes.GetBaseline(s.store))
	mux.HandleFuncWithMiddleware("PUT /baselines/{name...}", routes.PutBaseline(s.store))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(http.StatusText(http.StatusOK)))
	})

	mux.Handle("GET /metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}),
	))

	if Debug {
		mux.HandleFunc("GET /debug/pprof/", pprof.Index)
		mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
		mux.HandleFunc("GET /debug/pprof/profile", pyroscopepprof.Profile)
	}

	return mux
}

func startProfiler() (*pyroscope.Profiler, error) {
	endpoint := os.Getenv("PYROSCOPE_ENDPOINT")
	if endpoint == "" {
		return nil, nil
	}
	runtime.SetMutexProfileFraction(1)
	runtime.SetBlockProfileRate(1)

	return pyroscope.Start(pyroscope.Config{
		ApplicationName: applicationName,
		ServerAddress:   endpoint,
		UploadRate:      60 * time.Second,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})
}

// Start serves until ctx is done or the process receives SIGTERM, then waits
// out the lameduck period and shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger, err := logging.New(os.Stderr, Debug)
	if err != nil {
		return err
	}

	profiler, err := startProfiler()
	if err != nil {
		return xerrors.Errorf("failed to create profiler: %w", err)
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})

	r, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(applicationName)),
	)
	if err != nil {
		return xerrors.Errorf("failed to create resource: %w", err)
	}
	traceExporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return xerrors.Errorf("failed to create trace exporter: %w", err)
	}
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(r),
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(traceProvider))

	exporter, err := otelprometheus.New()
	if err != nil {
		return xerrors.Errorf("failed to create exporter: %w", err)
	}
	// NOTE: Gauge(UpDownCounter), Summary or Untyped does not support exemplars
	// https://github.com/prometheus/client_golang/blob/v1.20.4/prometheus/metric.go#L200
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)).Meter(applicationName)
	httpRequestsDurationMicroSeconds, err := meter.Int64Histogram("http_requests_duration_micro_seconds")
	if err != nil {
		return xerrors.Errorf("failed to create histogram: %w", err)
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return xerrors.Errorf("failed to listen on address %s: %w", s.address, err)
	}

	server := &http.Server{
		Handler:           s.Handler(logger, httpRequestsDurationMicroSeconds),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.SetKeepAlivesEnabled(s.keepAlive)

	go func() {
		if err := server.Serve(netutil.LimitListener(listener, s.maxConnections)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to serve HTTP", "error", err)
		}
	}()
	logger.Info("serving", "address", listener.Addr().String())

	quit, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()
	<-quit.Done()
	time.Sleep(s.lameduck)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.terminationGracePeriod)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return xerrors.Errorf("failed to shutdown server: %w", err)
	}

	if err := traceProvider.Shutdown(ctx); err != nil {
		return xerrors.Errorf("failed to shutdown trace provider: %w", err)
	}

	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			return xerrors.Errorf("failed to shutdown profiler: %w", err)
		}
	}

	return nil
}
