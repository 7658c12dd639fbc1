package factory

import (
	"context"
	"fmt"
	"os"

	"go-hallnav/internal/config"
	"go-hallnav/internal/inference"
	"go-hallnav/internal/logger"
	"go-hallnav/internal/repository"
	"go-hallnav/internal/storage"

	"github.com/sirupsen/logrus"
)

// StoreType represents the backing store for halls and schedules
type StoreType string

const (
	// PostgresStore reads the relational tables
	PostgresStore StoreType = "postgres"
	// SeedFileStore serves a YAML seed file from memory
	SeedFileStore StoreType = "seed_file"
	// BuiltinStore serves the built-in halls from memory
	BuiltinStore StoreType = "builtin"
)

// ModelSourceType represents where the model artifact comes from
type ModelSourceType string

const (
	// AzureSource downloads from blob storage
	AzureSource ModelSourceType = "azure"
	// HTTPSource downloads from a URL
	HTTPSource ModelSourceType = "http"
	// LocalSource expects the model on disk
	LocalSource ModelSourceType = "local"
)

// Store is a hall repository that may hold resources
type Store interface {
	repository.HallRepository
	Close() error
}

type memoryStore struct {
	*storage.MemoryStore
}

func (memoryStore) Close() error { return nil }

// StoreTypeFor picks the store the configuration asks for
func StoreTypeFor(cfg *config.Config) StoreType {
	switch {
	case cfg.DatabaseURL != "":
		return PostgresStore
	case cfg.SeedFile != "":
		return SeedFileStore
	default:
		return BuiltinStore
	}
}

// CreateStore creates the hall store for cfg. A Postgres store is pinged before use.
func CreateStore(ctx context.Context, cfg *config.Config) (Store, error) {
	storeType := StoreTypeFor(cfg)
	logger.WithField("store", storeType).Info("Creating hall store")

	switch storeType {
	case PostgresStore:
		pg, err := storage.NewPostgresStore(storage.PostgresConfig{DSN: cfg.DatabaseURL, MaxConnections: 10, MaxIdle: 5})
		if err != nil {
			return nil, err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case SeedFileStore:
		seed, err := storage.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		return newMemoryStore(seed)
	case BuiltinStore:
		return newMemoryStore(storage.DefaultSeed())
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}

func newMemoryStore(seed storage.Seed) (Store, error) {
	ms, err := storage.NewMemoryStore(seed)
	if err != nil {
		return nil, err
	}
	return memoryStore{ms}, nil
}

// ModelSourceTypeFor picks where a missing model is fetched from
func ModelSourceTypeFor(cfg *config.Config) ModelSourceType {
	switch {
	case cfg.UsesAzure():
		return AzureSource
	case cfg.ModelURL != "":
		return HTTPSource
	default:
		return LocalSource
	}
}

// CreateModelSource creates the model artifact source for cfg
func CreateModelSource(cfg *config.Config) (storage.ModelSource, error) {
	switch sourceType := ModelSourceTypeFor(cfg); sourceType {
	case AzureSource:
		return storage.NewAzureModelSource(cfg.AzureStorageAccount, cfg.AzureStorageKey,
			cfg.AzureStorageContainer, cfg.ModelBlobName)
	case HTTPSource:
		return storage.NewHTTPModelSource(cfg.ModelURL), nil
	case LocalSource:
		return storage.FileModelSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported model source: %s", sourceType)
	}
}

// Classifier is a hall classifier with an optional cleanup
type Classifier struct {
	inference.Classifier
	// InputSize is the square size the classifier expects
	InputSize int
	close     func()
}

// Close releases the classifier's resources
func (c *Classifier) Close() {
	if c.close != nil {
		c.close()
	}
}

// CreateClassifier builds the ONNX classifier when a model is configured, fetching
// the artifact first if it is not on disk. Otherwise a static classifier answers.
func CreateClassifier(ctx context.Context, cfg *config.Config) (*Classifier, error) {
	if cfg.ModelPath == "" {
		logger.WithFields(logrus.Fields{
			"hall":       cfg.StaticHall,
			"confidence": cfg.StaticConfidence,
		}).Warn("No MODEL_PATH configured; using static classifier")
		return &Classifier{
			Classifier: inference.StaticClassifier{Label: cfg.StaticHall, Confidence: cfg.StaticConfidence},
			InputSize:  cfg.ModelInputSize,
		}, nil
	}

	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		source, err := CreateModelSource(cfg)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"source": ModelSourceTypeFor(cfg),
			"path":   cfg.ModelPath,
		}).Info("Fetching model artifact")
		if err := source.Fetch(ctx, cfg.ModelPath); err != nil {
			return nil, fmt.Errorf("failed to fetch model: %w", err)
		}
	}

	meta, err := inference.LoadMetadata(cfg.ModelMetadataPath)
	if err != nil {
		return nil, err
	}

	onnx, err := inference.NewONNXClassifier(cfg.ModelPath, cfg.ONNXRuntimeLib, meta)
	if err != nil {
		return nil, err
	}

	return &Classifier{Classifier: onnx, InputSize: meta.ImageSize, close: onnx.Close}, nil
}
