package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"go-hallnav/internal/config"
	"go-hallnav/internal/factory"
	"go-hallnav/internal/imaging"
	"go-hallnav/internal/inference"
	"go-hallnav/internal/logger"
	"go-hallnav/internal/observer"
	"go-hallnav/internal/repository"
	"go-hallnav/internal/routing"
	"go-hallnav/internal/schedule"
	"go-hallnav/internal/service"
	"go-hallnav/internal/transport"
	"go-hallnav/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	store              factory.Store
	classifier         *factory.Classifier
	reference          *repository.ReferenceData
	router             *routing.Router
	events             *observer.EventPublisher
	stats              *observer.MetricsObserver
	registry           *prometheus.Registry
	recognitionService service.RecognitionService
	handler            http.Handler
}

// NewContainer builds the dependency graph from cfg. Reference data is loaded
// once here; a store that cannot list its halls fails startup.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger.Logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := factory.CreateStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create hall store: %w", err)
	}

	reference, err := repository.LoadReferenceData(ctx, store)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}

	classifier, err := factory.CreateClassifier(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	if static, ok := classifier.Classifier.(inference.StaticClassifier); ok {
		if _, err := reference.Hall(static.Label); err != nil {
			store.Close()
			return nil, fmt.Errorf("STATIC_HALL is not a known hall: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	stats := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(stats)
	events.Subscribe(observer.NewPrometheusObserver(registry))

	recognitionService := service.NewRecognitionService(
		validation.NewIntakeValidatorWithThresholds(cfg.Thresholds()),
		imaging.NewPreprocessor(classifier.InputSize),
		inference.NewAdapter(classifier, reference.HallNames()),
		schedule.NewResolver(store, loc),
		events,
		nil,
	)

	router := routing.NewRouter(routing.LoadLocations(reference.Halls()))

	handler := transport.NewHandler(transport.Deps{
		Recognizer: recognitionService,
		Router:     router,
		Reference:  reference,
		Events:     events,
		Stats:      stats,
		Gatherer:   registry,
	}, transport.Options{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	logger.WithField("halls", len(reference.Halls())).Info("Container initialized")

	return &Container{
		config:             cfg,
		store:              store,
		classifier:         classifier,
		reference:          reference,
		router:             router,
		events:             events,
		stats:              stats,
		registry:           registry,
		recognitionService: recognitionService,
		handler:            handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) RecognitionService() service.RecognitionService {
	return c.recognitionService
}

func (c *Container) Router() *routing.Router {
	return c.router
}

func (c *Container) Reference() *repository.ReferenceData {
	return c.reference
}

// Close releases the classifier and the store
func (c *Container) Close() error {
	c.classifier.Close()
	return c.store.Close()
}
