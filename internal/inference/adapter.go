package inference

import (
	"context"
	"fmt"
	"math"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/pkg/models"
)

// Classifier is the trained hall model. It is maintained outside this service.
type Classifier interface {
	Classify(ctx context.Context, tensor models.ImageTensor) (label string, confidence float64, err error)
}

// ClassifierFunc adapts a function to the Classifier interface
type ClassifierFunc func(ctx context.Context, tensor models.ImageTensor) (string, float64, error)

func (f ClassifierFunc) Classify(ctx context.Context, tensor models.ImageTensor) (string, float64, error) {
	return f(ctx, tensor)
}

// Adapter guards the classifier contract: the label must be a known hall and
// the confidence must lie in [0,1]. Violations are internal errors.
type Adapter struct {
	classifier Classifier
	halls      map[string]struct{}
}

// NewAdapter wraps classifier, accepting only labels from knownHalls
func NewAdapter(classifier Classifier, knownHalls []string) *Adapter {
	halls := make(map[string]struct{}, len(knownHalls))
	for _, h := range knownHalls {
		halls[h] = struct{}{}
	}
	return &Adapter{classifier: classifier, halls: halls}
}

// Classify runs one inference. There is no retry.
func (a *Adapter) Classify(ctx context.Context, tensor models.ImageTensor) (models.RecognitionResult, error) {
	label, confidence, err := a.classifier.Classify(ctx, tensor)
	if err != nil {
		return models.RecognitionResult{}, apperrors.NewInternalError("classification failed", err)
	}

	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return models.RecognitionResult{}, apperrors.NewInternalError(
			fmt.Sprintf("classifier returned confidence %v outside [0,1]", confidence), nil)
	}
	if _, ok := a.halls[label]; !ok {
		return models.RecognitionResult{}, apperrors.NewInternalError(
			fmt.Sprintf("classifier returned unknown hall %q", label), nil)
	}

	return models.RecognitionResult{HallID: label, Confidence: confidence}, nil
}

// StaticClassifier always answers with the same label and confidence.
// It stands in for a model when none is configured.
type StaticClassifier struct {
	Label      string
	Confidence float64
}

func (s StaticClassifier) Classify(ctx context.Context, _ models.ImageTensor) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	return s.Label, s.Confidence, nil
}
