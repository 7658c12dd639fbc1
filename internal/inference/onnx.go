package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"go-hallnav/pkg/models"
)

// Metadata describes an exported hall model
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	InputName   string   `json:"input_name,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`

	// Set when the exported graph already ends in a softmax
	Probabilities bool `json:"probabilities,omitempty"`
}

// LoadMetadata reads and checks a model metadata file
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if len(meta.Classes) == 0 {
		return Metadata{}, fmt.Errorf("metadata lists no classes")
	}
	if meta.ImageSize <= 0 {
		return Metadata{}, fmt.Errorf("metadata image_size must be > 0")
	}
	if want, got := int64(3*meta.ImageSize*meta.ImageSize), shapeSize(meta.InputShape); got != want {
		return Metadata{}, fmt.Errorf("metadata input_shape %v holds %d values, want %d for a 3x%dx%d image",
			meta.InputShape, got, want, meta.ImageSize, meta.ImageSize)
	}
	if got := shapeSize(meta.OutputShape); got < int64(len(meta.Classes)) {
		return Metadata{}, fmt.Errorf("metadata output_shape %v holds %d values for %d classes",
			meta.OutputShape, got, len(meta.Classes))
	}
	if meta.InputName == "" {
		meta.InputName = "input"
	}
	if meta.OutputName == "" {
		meta.OutputName = "output"
	}
	return meta, nil
}

func shapeSize(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape {
		if d <= 0 {
			return 0
		}
		n *= d
	}
	return n
}

// ErrClassifierClosed is returned by Classify after Close
var ErrClassifierClosed = errors.New("classifier is closed")

// ONNXClassifier runs an exported hall model through onnxruntime.
// The session and tensors are shared, so Run is serialized.
type ONNXClassifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewONNXClassifier loads the model at modelPath described by metadata.
// runtimeLibrary optionally points at the onnxruntime shared library.
func NewONNXClassifier(modelPath, runtimeLibrary string, metadata Metadata) (*ONNXClassifier, error) {
	if !ort.IsInitialized() {
		if runtimeLibrary != "" {
			ort.SetSharedLibraryPath(runtimeLibrary)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXClassifier{
		session:      session,
		metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Metadata returns the model description
func (c *ONNXClassifier) Metadata() Metadata {
	return c.metadata
}

func (c *ONNXClassifier) Classify(ctx context.Context, tensor models.ImageTensor) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return "", 0, ErrClassifierClosed
	}

	input := c.inputTensor.GetData()
	if len(tensor.Data) != len(input) {
		return "", 0, fmt.Errorf("expected %d input values, got %d", len(input), len(tensor.Data))
	}
	copy(input, tensor.Data)

	if err := c.session.Run(); err != nil {
		return "", 0, fmt.Errorf("inference failed: %w", err)
	}

	scores := c.outputTensor.GetData()
	if len(scores) < len(c.metadata.Classes) {
		return "", 0, fmt.Errorf("model produced %d scores for %d classes", len(scores), len(c.metadata.Classes))
	}
	scores = scores[:len(c.metadata.Classes)]

	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = float64(s)
	}
	if !c.metadata.Probabilities {
		probs = Softmax(probs)
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return c.metadata.Classes[best], probs[best], nil
}

// Close releases the session and tensors
func (c *ONNXClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inputTensor != nil {
		c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
}

// Softmax converts logits into probabilities
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
