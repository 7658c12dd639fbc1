package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/internal/imaging"
	"go-hallnav/internal/inference"
	"go-hallnav/internal/logger"
	"go-hallnav/internal/observer"
	"go-hallnav/internal/outcome"
	"go-hallnav/internal/schedule"
	"go-hallnav/pkg/models"
	"go-hallnav/pkg/validation"
)

// RecognitionService turns an uploaded photo into a hall and its schedule
type RecognitionService interface {
	// Recognize runs the full pipeline. It never returns an error: every failure
	// is folded into the outcome, together with its HTTP status.
	Recognize(ctx context.Context, upload models.RawUpload) (models.StructuredOutcome, int, models.ProcessingTimings)
}

// Clock returns the current time; schedules are resolved against it
type Clock func() time.Time

type recognitionService struct {
	validator    *validation.IntakeValidator
	preprocessor imaging.Preprocessor
	adapter      *inference.Adapter
	resolver     *schedule.Resolver
	events       observer.Subject
	now          Clock
}

// NewRecognitionService wires the pipeline stages. events and now may be nil.
func NewRecognitionService(
	validator *validation.IntakeValidator,
	preprocessor imaging.Preprocessor,
	adapter *inference.Adapter,
	resolver *schedule.Resolver,
	events observer.Subject,
	now Clock,
) RecognitionService {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	if now == nil {
		now = time.Now
	}
	return &recognitionService{
		validator:    validator,
		preprocessor: preprocessor,
		adapter:      adapter,
		resolver:     resolver,
		events:       events,
		now:          now,
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request id for logs and events
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id attached to ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *recognitionService) Recognize(ctx context.Context, upload models.RawUpload) (models.StructuredOutcome, int, models.ProcessingTimings) {
	start := time.Now()
	timings := models.ProcessingTimings{RequestID: RequestID(ctx)}

	s.events.NotifyObservers(ctx, observer.RecognitionEvent{
		EventType: observer.RecognitionStarted,
		RequestID: timings.RequestID,
		Filename:  upload.Filename,
		Metadata:  map[string]interface{}{"bytes": upload.Size()},
	})

	result, sched, err := s.run(ctx, upload, &timings)
	timings.Total = time.Since(start)

	if err != nil {
		out, status := outcome.Failure(err)
		s.reportFailure(ctx, upload, timings, err, out)
		return out, status, timings
	}

	out, status := outcome.Success(result, sched)
	s.events.NotifyObservers(ctx, observer.RecognitionEvent{
		EventType:  observer.RecognitionCompleted,
		RequestID:  timings.RequestID,
		Filename:   upload.Filename,
		HallID:     result.HallID,
		Confidence: result.Confidence,
		Duration:   timings.Total,
	})
	return out, status, timings
}

func (s *recognitionService) run(ctx context.Context, upload models.RawUpload, timings *models.ProcessingTimings) (models.RecognitionResult, string, error) {
	// Filename, presence and size, before any decode work
	stage := time.Now()
	verdict, _ := s.validator.CheckUpload(upload)
	if !verdict.Accepted {
		timings.Validate += time.Since(stage)
		return models.RecognitionResult{}, "", validation.AsError(verdict)
	}

	// Header-only decode bounds the dimensions before pixels are allocated
	cfg, _, err := s.preprocessor.DecodeConfig(upload.Data)
	timings.Validate += time.Since(stage)
	if err != nil {
		return models.RecognitionResult{}, "", err
	}
	if verdict := s.validator.CheckDimensions(cfg.Width, cfg.Height); !verdict.Accepted {
		return models.RecognitionResult{}, "", validation.AsError(verdict)
	}

	stage = time.Now()
	img, _, err := s.preprocessor.Decode(upload.Data)
	timings.Decode = time.Since(stage)
	if err != nil {
		return models.RecognitionResult{}, "", err
	}

	stage = time.Now()
	b := img.Bounds()
	stats := imaging.ChannelStats(img)
	verdict = s.validator.CheckDecoded(b.Dx(), b.Dy(), stats.StdDev)
	timings.Validate += time.Since(stage)
	if !verdict.Accepted {
		return models.RecognitionResult{}, "", validation.AsError(verdict)
	}

	stage = time.Now()
	tensor := s.preprocessor.Preprocess(img)
	result, err := s.adapter.Classify(ctx, tensor)
	timings.Inference = time.Since(stage)
	if err != nil {
		return models.RecognitionResult{}, "", err
	}

	if verdict := s.validator.CheckConfidence(result.Confidence); !verdict.Accepted {
		return result, "", validation.AsError(verdict)
	}

	stage = time.Now()
	sched, err := s.resolver.Resolve(ctx, result.HallID, s.now())
	timings.Schedule = time.Since(stage)
	if err != nil {
		return result, "", apperrors.NewInternalError("failed to resolve schedule", err)
	}

	return result, sched, nil
}

func (s *recognitionService) reportFailure(ctx context.Context, upload models.RawUpload, timings models.ProcessingTimings, err error, out models.StructuredOutcome) {
	event := observer.RecognitionEvent{
		EventType:    observer.RecognitionRejected,
		RequestID:    timings.RequestID,
		Filename:     upload.Filename,
		Kind:         out.Kind,
		Duration:     timings.Total,
		ErrorMessage: err.Error(),
	}

	if apperrors.KindOf(err) == apperrors.KindInternalError {
		event.EventType = observer.RecognitionFailed
		logger.WithFields(logrus.Fields{
			"request_id": timings.RequestID,
			"filename":   upload.Filename,
			"kind":       out.Kind,
		}).WithError(err).Error("Internal error during hall recognition")
	}

	s.events.NotifyObservers(ctx, event)
}
