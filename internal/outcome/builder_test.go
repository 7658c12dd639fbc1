package outcome

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/pkg/models"
)

func TestSuccess(t *testing.T) {
	out, status := Success(models.RecognitionResult{HallID: "LT1 & 2", Confidence: 0.92}, "09:00-10:30 Computer Science 101")

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, out.IsSuccess())

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","hall_id":"LT1 & 2","confidence":0.92,"schedule":"09:00-10:30 Computer Science 101"}`, string(raw))
}

func TestSuccess_ZeroConfidenceSerialized(t *testing.T) {
	out, _ := Success(models.RecognitionResult{HallID: "LT1 & 2", Confidence: 0}, "No schedule found")

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"confidence":0`)
}

func TestFailure_Taxonomy(t *testing.T) {
	clientKinds := []apperrors.ErrorKind{
		apperrors.KindMissingFile,
		apperrors.KindInvalidFilename,
		apperrors.KindFileTooLarge,
		apperrors.KindDecodeError,
		apperrors.KindDimensionOutOfRange,
		apperrors.KindDegenerateContent,
		apperrors.KindLowConfidence,
		apperrors.KindUnknownLocation,
	}

	for _, kind := range clientKinds {
		t.Run(string(kind), func(t *testing.T) {
			out, status := Failure(apperrors.NewValidationError(kind, "rejected", nil))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "validation_error", out.Status)
			assert.Equal(t, "rejected", out.Error)
			assert.Equal(t, string(kind), out.Kind)
			assert.False(t, out.IsSuccess())
		})
	}
}

func TestFailure_Internal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"internal app error", apperrors.NewInternalError("classifier returned confidence 1.3 outside [0,1]", nil)},
		{"foreign error", errors.New("disk on fire")},
		{"wrapped internal", fmt.Errorf("pipeline: %w", apperrors.NewInternalError("boom", nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, status := Failure(tt.err)
			assert.Equal(t, http.StatusInternalServerError, status)
			assert.Equal(t, "system_error", out.Status)
			assert.Equal(t, internalMessage, out.Error)
			assert.Equal(t, string(apperrors.KindInternalError), out.Kind)

			raw, err := json.Marshal(out)
			require.NoError(t, err)
			assert.JSONEq(t, `{"status":"system_error","error":"`+internalMessage+`"}`, string(raw))
		})
	}
}

func TestFromValidation(t *testing.T) {
	out, status := FromValidation(models.Rejected(string(apperrors.KindLowConfidence), "too unsure"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "too unsure", out.Error)

	_, status = FromValidation(models.Accepted())
	assert.Equal(t, http.StatusInternalServerError, status)
}
