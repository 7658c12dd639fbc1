package validation

import (
	"fmt"
	"math"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/pkg/models"
)

// Thresholds defines the configurable limits of the intake gates
type Thresholds struct {
	// Decoded width and height must both lie in [MinDimension, MaxDimension]
	MinDimension int
	MaxDimension int

	// Raw upload ceiling, checked before decoding
	MaxBytes int64

	// Recognitions below this confidence are rejected
	ConfidenceThreshold float64

	// Images whose every channel has a standard deviation (8-bit units)
	// below this value are treated as flat
	VarianceEpsilon float64

	// Accept blank or extension-less filenames when the content is a confirmed image
	AllowContentTypeFallback bool
}

// DefaultThresholds returns the default intake thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDimension:             32,
		MaxDimension:             4096,
		MaxBytes:                 10 * 1024 * 1024, // 10MB
		ConfidenceThreshold:      0.6,
		VarianceEpsilon:          1.0,
		AllowContentTypeFallback: false,
	}
}

// Validate checks the thresholds are internally consistent
func (t Thresholds) Validate() error {
	if t.MinDimension < 1 || t.MaxDimension < t.MinDimension {
		return fmt.Errorf("invalid dimension range [%d, %d]", t.MinDimension, t.MaxDimension)
	}
	if t.MaxBytes <= 0 {
		return fmt.Errorf("max bytes must be > 0 (got %d)", t.MaxBytes)
	}
	if t.ConfidenceThreshold < 0 || t.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1] (got %f)", t.ConfidenceThreshold)
	}
	if t.VarianceEpsilon < 0 {
		return fmt.Errorf("variance epsilon must be >= 0 (got %f)", t.VarianceEpsilon)
	}
	return nil
}

// StructuralInput carries everything the structural gate looks at
type StructuralInput struct {
	Filename      string
	ContentType   string
	Data          []byte
	Width         int
	Height        int
	ChannelStdDev [3]float64
}

// IntakeValidator implements the pre- and post-inference gates
type IntakeValidator struct {
	thresholds Thresholds
	filenames  *FilenameValidator
}

// NewIntakeValidator creates a new intake validator with default thresholds
func NewIntakeValidator() *IntakeValidator {
	return NewIntakeValidatorWithThresholds(DefaultThresholds())
}

// NewIntakeValidatorWithThresholds creates an intake validator with custom thresholds
func NewIntakeValidatorWithThresholds(thresholds Thresholds) *IntakeValidator {
	return &IntakeValidator{
		thresholds: thresholds,
		filenames:  NewFilenameValidator(thresholds.AllowContentTypeFallback),
	}
}

// Thresholds returns the thresholds in effect
func (v *IntakeValidator) Thresholds() Thresholds {
	return v.thresholds
}

// CheckUpload applies the checks that need no decoding: presence, filename and size.
// It also returns the effective filename after any default-extension fallback.
func (v *IntakeValidator) CheckUpload(upload models.RawUpload) (models.ValidationOutcome, string) {
	// 1. Presence
	if len(upload.Data) == 0 {
		return reject(apperrors.KindMissingFile, "No image file provided"), upload.Filename
	}

	// 2. Filename
	name, ok := v.filenames.Resolve(upload.Filename, upload.ContentType, upload.Data)
	if !ok {
		return reject(apperrors.KindInvalidFilename,
			"Invalid file name or format. Supported formats: JPG, JPEG, PNG, BMP, TIFF"), name
	}

	// 3. Size, before any decode work
	if upload.Size() > v.thresholds.MaxBytes {
		return reject(apperrors.KindFileTooLarge, fmt.Sprintf(
			"File too large (%d bytes). Maximum allowed size is %d bytes", upload.Size(), v.thresholds.MaxBytes)), name
	}

	return models.Accepted(), name
}

// CheckDimensions rejects images whose decoded size is outside the configured range
func (v *IntakeValidator) CheckDimensions(width, height int) models.ValidationOutcome {
	t := v.thresholds
	if width < t.MinDimension || height < t.MinDimension {
		return reject(apperrors.KindDimensionOutOfRange, fmt.Sprintf(
			"Image too small (%dx%d). Minimum size is %dx%d", width, height, t.MinDimension, t.MinDimension))
	}
	if width > t.MaxDimension || height > t.MaxDimension {
		return reject(apperrors.KindDimensionOutOfRange, fmt.Sprintf(
			"Image too large (%dx%d). Maximum size is %dx%d", width, height, t.MaxDimension, t.MaxDimension))
	}
	return models.Accepted()
}

// CheckContent rejects flat images: every channel's standard deviation below epsilon
func (v *IntakeValidator) CheckContent(channelStdDev [3]float64) models.ValidationOutcome {
	maxStd := math.Max(channelStdDev[0], math.Max(channelStdDev[1], channelStdDev[2]))
	if maxStd < v.thresholds.VarianceEpsilon {
		return reject(apperrors.KindDegenerateContent,
			"Image appears to be blank or a single flat color. Please upload a photo of a lecture hall")
	}
	return models.Accepted()
}

// CheckDecoded applies the post-decode rules: dimensions, then content
func (v *IntakeValidator) CheckDecoded(width, height int, channelStdDev [3]float64) models.ValidationOutcome {
	if outcome := v.CheckDimensions(width, height); !outcome.Accepted {
		return outcome
	}
	return v.CheckContent(channelStdDev)
}

// CheckStructural runs every pre-inference rule in order; the first failure wins
func (v *IntakeValidator) CheckStructural(in StructuralInput) models.ValidationOutcome {
	upload := models.RawUpload{Data: in.Data, Filename: in.Filename, ContentType: in.ContentType}
	if outcome, _ := v.CheckUpload(upload); !outcome.Accepted {
		return outcome
	}
	return v.CheckDecoded(in.Width, in.Height, in.ChannelStdDev)
}

// CheckConfidence is the post-inference gate
func (v *IntakeValidator) CheckConfidence(confidence float64) models.ValidationOutcome {
	if math.IsNaN(confidence) || confidence < v.thresholds.ConfidenceThreshold {
		return reject(apperrors.KindLowConfidence, fmt.Sprintf(
			"Could not recognize a lecture hall with enough confidence (%.2f < %.2f). Please try a clearer photo",
			confidence, v.thresholds.ConfidenceThreshold))
	}
	return models.Accepted()
}

// AsError converts a rejecting outcome into the matching application error
func AsError(outcome models.ValidationOutcome) error {
	if outcome.Accepted {
		return nil
	}
	return apperrors.NewValidationError(apperrors.ErrorKind(outcome.Kind), outcome.Message, nil)
}

func reject(kind apperrors.ErrorKind, message string) models.ValidationOutcome {
	return models.Rejected(string(kind), message)
}
