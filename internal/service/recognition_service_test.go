package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/internal/imaging"
	"go-hallnav/internal/inference"
	"go-hallnav/internal/observer"
	"go-hallnav/internal/schedule"
	"go-hallnav/internal/storage"
	"go-hallnav/pkg/models"
	"go-hallnav/pkg/validation"
)

var fixedNow = time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

func solidPNG(t *testing.T, width, height int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// hallPhoto stands in for a real photo: a gradient with enough variance to pass the content gate
func hallPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 224, 224))
	for y := 0; y < 224; y++ {
		for x := 0; x < 224; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8((x + y) / 2), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type failingRepo struct{}

func (failingRepo) GetHalls(context.Context) ([]models.Hall, error) { return nil, nil }

func (failingRepo) GetSchedules(context.Context, string, time.Time) ([]models.ScheduleEntry, error) {
	return nil, errors.New("connection reset by peer")
}

type harness struct {
	svc     RecognitionService
	metrics *observer.MetricsObserver
}

func newHarness(t *testing.T, classifier inference.Classifier, thresholds validation.Thresholds) harness {
	t.Helper()
	store, err := storage.NewMemoryStore(storage.DefaultSeed())
	require.NoError(t, err)
	return newHarnessWithRepo(t, classifier, thresholds, schedule.NewResolver(store, time.UTC))
}

func newHarnessWithRepo(t *testing.T, classifier inference.Classifier, thresholds validation.Thresholds, resolver *schedule.Resolver) harness {
	t.Helper()
	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)

	svc := NewRecognitionService(
		validation.NewIntakeValidatorWithThresholds(thresholds),
		imaging.NewPreprocessor(imaging.DefaultInputSize),
		inference.NewAdapter(classifier, []string{"LT1 & 2", "LT3 & 4"}),
		resolver,
		events,
		func() time.Time { return fixedNow },
	)
	return harness{svc: svc, metrics: metrics}
}

func confident(label string, c float64) inference.Classifier {
	return inference.StaticClassifier{Label: label, Confidence: c}
}

func TestRecognize_Success(t *testing.T) {
	h := newHarness(t, confident("LT1 & 2", 0.92), validation.DefaultThresholds())

	ctx := WithRequestID(context.Background(), "req-42")
	out, status, timings := h.svc.Recognize(ctx, models.RawUpload{Data: hallPhoto(t), Filename: "hall.png"})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.StatusSuccess, out.Status)
	assert.Equal(t, "LT1 & 2", out.HallID)
	require.NotNil(t, out.Confidence)
	assert.InDelta(t, 0.92, *out.Confidence, 1e-9)
	assert.Equal(t, "09:00-10:30 Computer Science 101; 11:00-12:30 Mathematics 201", out.Schedule)
	assert.Empty(t, out.Error)

	assert.Equal(t, "req-42", timings.RequestID)
	assert.True(t, timings.Total >= timings.Inference)

	m := h.metrics.GetMetrics()
	assert.Equal(t, int64(1), m["total_recognitions"])
	assert.Equal(t, int64(1), m["recognized"])
}

func TestRecognize_Rejections(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	black := color.RGBA{0, 0, 0, 255}

	tests := []struct {
		name       string
		upload     func(t *testing.T) models.RawUpload
		classifier inference.Classifier
		kind       apperrors.ErrorKind
		status     int
		statusText string
	}{
		{
			name:   "no file",
			upload: func(t *testing.T) models.RawUpload { return models.RawUpload{Filename: "hall.jpg"} },
			kind:   apperrors.KindMissingFile,
		},
		{
			name:   "empty filename",
			upload: func(t *testing.T) models.RawUpload { return models.RawUpload{Data: hallPhoto(t), Filename: ""} },
			kind:   apperrors.KindInvalidFilename,
		},
		{
			name:   "unsupported extension",
			upload: func(t *testing.T) models.RawUpload { return models.RawUpload{Data: hallPhoto(t), Filename: "test.txt"} },
			kind:   apperrors.KindInvalidFilename,
		},
		{
			name: "corrupted bytes",
			upload: func(t *testing.T) models.RawUpload {
				return models.RawUpload{Data: []byte("definitely not a jpeg"), Filename: "hall.jpg"}
			},
			kind: apperrors.KindDecodeError,
		},
		{
			name: "10x10 red image",
			upload: func(t *testing.T) models.RawUpload {
				return models.RawUpload{Data: solidPNG(t, 10, 10, red), Filename: "tiny.png"}
			},
			kind: apperrors.KindDimensionOutOfRange,
		},
		{
			name: "224x224 black image",
			upload: func(t *testing.T) models.RawUpload {
				return models.RawUpload{Data: solidPNG(t, 224, 224, black), Filename: "black.png"}
			},
			kind: apperrors.KindDegenerateContent,
		},
		{
			name:       "low confidence",
			upload:     func(t *testing.T) models.RawUpload { return models.RawUpload{Data: hallPhoto(t), Filename: "hall.png"} },
			classifier: confident("LT1 & 2", 0.41),
			kind:       apperrors.KindLowConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Rejections without a classifier of their own must stop before inference
			classifier := tt.classifier
			if classifier == nil {
				classifier = inference.ClassifierFunc(func(context.Context, models.ImageTensor) (string, float64, error) {
					t.Errorf("classifier reached for %s", tt.name)
					return "LT1 & 2", 0.92, nil
				})
			}
			h := newHarness(t, classifier, validation.DefaultThresholds())

			out, status, _ := h.svc.Recognize(context.Background(), tt.upload(t))

			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "validation_error", out.Status)
			assert.Equal(t, string(tt.kind), out.Kind)
			assert.NotEmpty(t, out.Error)
			assert.Empty(t, out.HallID)
			assert.Nil(t, out.Confidence)
			assert.Equal(t, int64(1), h.metrics.GetMetrics()["rejected"])
		})
	}
}

func TestRecognize_FileTooLarge(t *testing.T) {
	thresholds := validation.DefaultThresholds()
	photo := hallPhoto(t)
	thresholds.MaxBytes = int64(len(photo) - 1)

	h := newHarness(t, confident("LT1 & 2", 0.92), thresholds)
	out, status, _ := h.svc.Recognize(context.Background(), models.RawUpload{Data: photo, Filename: "hall.png"})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(apperrors.KindFileTooLarge), out.Kind)
}

func TestRecognize_InternalErrors(t *testing.T) {
	tests := []struct {
		name       string
		classifier inference.Classifier
	}{
		{"confidence above one", confident("LT1 & 2", 1.3)},
		{"unknown label", confident("Atlantis", 0.95)},
		{"classifier failure", inference.ClassifierFunc(func(context.Context, models.ImageTensor) (string, float64, error) {
			return "", 0, errors.New("onnx session closed")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.classifier, validation.DefaultThresholds())
			out, status, _ := h.svc.Recognize(context.Background(), models.RawUpload{Data: hallPhoto(t), Filename: "hall.png"})

			assert.Equal(t, http.StatusInternalServerError, status)
			assert.Equal(t, "system_error", out.Status)
			assert.Equal(t, string(apperrors.KindInternalError), out.Kind)
			assert.NotContains(t, out.Error, "1.3")
			assert.Equal(t, int64(1), h.metrics.GetMetrics()["failed"])
		})
	}
}

func TestRecognize_ScheduleStoreFailure(t *testing.T) {
	resolver := schedule.NewResolver(failingRepo{}, time.UTC)
	h := newHarnessWithRepo(t, confident("LT3 & 4", 0.88), validation.DefaultThresholds(), resolver)

	out, status, _ := h.svc.Recognize(context.Background(), models.RawUpload{Data: hallPhoto(t), Filename: "hall.png"})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "system_error", out.Status)
}

func TestRecognize_NoScheduleIsSuccess(t *testing.T) {
	seed := storage.Seed{Halls: []models.Hall{{Name: "LT1 & 2"}, {Name: "LT3 & 4"}}}
	store, err := storage.NewMemoryStore(seed)
	require.NoError(t, err)

	h := newHarnessWithRepo(t, confident("LT3 & 4", 0.75), validation.DefaultThresholds(), schedule.NewResolver(store, time.UTC))
	out, status, _ := h.svc.Recognize(context.Background(), models.RawUpload{Data: hallPhoto(t), Filename: "hall.png"})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, schedule.NoScheduleFound, out.Schedule)
}

func TestRecognize_ConfidenceAtThreshold(t *testing.T) {
	h := newHarness(t, confident("LT3 & 4", 0.6), validation.DefaultThresholds())
	out, status, _ := h.svc.Recognize(context.Background(), models.RawUpload{Data: hallPhoto(t), Filename: "hall.PNG"})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10:00-11:30 Physics 301; 14:00-15:30 Engineering 401", out.Schedule)
}
