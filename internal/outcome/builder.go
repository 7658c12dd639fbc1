package outcome

import (
	"net/http"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/pkg/models"
)

// internalMessage is what clients see for any server-side failure
const internalMessage = "An unexpected error occurred while processing the image"

// Success builds the success shape for a recognized hall
func Success(result models.RecognitionResult, schedule string) (models.StructuredOutcome, int) {
	confidence := result.Confidence
	return models.StructuredOutcome{
		Status:     models.StatusSuccess,
		HallID:     result.HallID,
		Confidence: &confidence,
		Schedule:   schedule,
	}, http.StatusOK
}

// Failure maps any error to the failure shape. Errors outside the taxonomy are internal.
// Internal details never reach the client message.
func Failure(err error) (models.StructuredOutcome, int) {
	kind := apperrors.KindOf(err)

	message := internalMessage
	if appErr, ok := apperrors.As(err); ok && kind.Category() == apperrors.ErrorTypeValidation {
		message = appErr.Message
	}

	return models.StructuredOutcome{
		Status: string(kind.Category()),
		Error:  message,
		Kind:   string(kind),
	}, kind.StatusCode()
}

// FromValidation maps a gate verdict. An accepted verdict is not a failure and
// must not be passed here; it is reported as an internal error if it is.
func FromValidation(v models.ValidationOutcome) (models.StructuredOutcome, int) {
	if v.Accepted {
		return Failure(apperrors.NewInternalError("accepted verdict reported as failure", nil))
	}
	return Failure(apperrors.NewValidationError(apperrors.ErrorKind(v.Kind), v.Message, nil))
}
