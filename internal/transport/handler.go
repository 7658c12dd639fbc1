package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/internal/logger"
	"go-hallnav/internal/observer"
	"go-hallnav/internal/outcome"
	"go-hallnav/internal/repository"
	"go-hallnav/internal/routing"
	"go-hallnav/internal/service"
	"go-hallnav/pkg/models"
)

const (
	requestIDHeader = "X-Request-ID"
	uploadField     = "file"
)

// Options configures the HTTP surface
type Options struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

// Deps are the collaborators the handlers need
type Deps struct {
	Recognizer service.RecognitionService
	Router     *routing.Router
	Reference  *repository.ReferenceData
	Events     observer.Subject
	Stats      *observer.MetricsObserver
	Gatherer   prometheus.Gatherer
}

func NewHandler(deps Deps, opts Options) http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(opts.MaxRequestBodySize),
	)

	r.GET("/health", healthCheck(deps.Stats))
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.POST("/recognize_hall/", recognizeHall(deps.Recognizer, opts))
	api.GET("/halls", listHalls(deps.Reference))
	api.GET("/route", planRoute(deps.Router, deps.Events))

	return r
}

func recognizeHall(svc service.RecognitionService, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.RequestTimeout)
		defer cancel()
		ctx = service.WithRequestID(ctx, c.GetString(requestIDHeader))

		upload, err := readUpload(c)
		if err != nil {
			out, status := outcome.Failure(err)
			c.JSON(status, out)
			return
		}

		out, status, timings := svc.Recognize(ctx, upload)

		logger.WithFields(logrus.Fields{
			"request_id":   timings.RequestID,
			"status":       out.Status,
			"hall_id":      out.HallID,
			"decode_ms":    timings.Decode.Milliseconds(),
			"validate_ms":  timings.Validate.Milliseconds(),
			"inference_ms": timings.Inference.Milliseconds(),
			"schedule_ms":  timings.Schedule.Milliseconds(),
			"total_ms":     timings.Total.Milliseconds(),
		}).Debug("Recognition timings")

		c.JSON(status, out)
	}
}

// readUpload streams the multipart body and extracts the file field. A part
// carrying a filename parameter is a file even when the name is blank. A
// missing field or a non-multipart body yields an empty upload, which the
// pipeline reports as MissingFile.
func readUpload(c *gin.Context) (models.RawUpload, error) {
	mr, err := c.Request.MultipartReader()
	if err != nil {
		return models.RawUpload{}, nil
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return models.RawUpload{}, nil
		}
		if err != nil {
			return models.RawUpload{}, uploadReadError(err)
		}

		if part.FormName() != uploadField || !hasFilenameParam(part) {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return models.RawUpload{}, uploadReadError(err)
		}

		return models.RawUpload{
			Data:        data,
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
		}, nil
	}
}

func hasFilenameParam(part *multipart.Part) bool {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return false
	}
	_, ok := params["filename"]
	return ok
}

// uploadReadError maps a body read failure; anything but an oversized body is
// treated as a missing file
func uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewValidationError(apperrors.KindFileTooLarge,
			fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", tooLarge.Limit), err)
	}
	logger.WithError(err).Debug("Malformed multipart body")
	return nil
}

func listHalls(ref *repository.ReferenceData) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"halls": ref.Halls()})
	}
}

func planRoute(router *routing.Router, events observer.Subject) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := strings.TrimSpace(c.Query("start"))
		end := strings.TrimSpace(c.Query("end"))
		event := observer.RecognitionEvent{
			RequestID: c.GetString(requestIDHeader),
			Metadata:  map[string]interface{}{"start": start, "end": end},
		}

		var err error
		switch {
		case start == "" || end == "":
			err = apperrors.NewValidationError(apperrors.KindUnknownLocation, "Both start and end are required", nil)
		case start == end:
			err = apperrors.NewValidationError(apperrors.KindUnknownLocation, routing.AlreadyThere, nil)
		}

		var plan models.RouteResponse
		if err == nil {
			plan, err = router.Plan(start, end)
		}

		if err != nil {
			event.EventType = observer.RouteRejected
			event.Kind = string(apperrors.KindOf(err))
			event.ErrorMessage = err.Error()
			events.NotifyObservers(c.Request.Context(), event)
			respondError(c, err)
			return
		}

		event.EventType = observer.RouteComputed
		events.NotifyObservers(c.Request.Context(), event)
		c.JSON(http.StatusOK, plan)
	}
}

func healthCheck(stats *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "available",
			"version": "1.0.0",
			"time":    time.Now().UTC().Format(time.RFC3339),
		}
		if stats != nil {
			body["recognitions"] = stats.GetMetrics()
		}
		c.JSON(http.StatusOK, body)
	}
}

// Middleware and helper functions
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id":  c.GetString(requestIDHeader),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	kind := apperrors.KindOf(err)

	message := "An unexpected error occurred"
	if appErr, ok := apperrors.As(err); ok && kind.Category() == apperrors.ErrorTypeValidation {
		message = appErr.Message
	}

	if code >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"status_code": code,
			"path":        c.Request.URL.Path,
			"method":      c.Request.Method,
		}).Error("Request failed")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Status: string(kind.Category()),
		Error:  message,
	})
}
