package inference

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-hallnav/pkg/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMetadata(t *testing.T) {
	path := writeFile(t, `{
		"input_shape": [1, 3, 224, 224],
		"output_shape": [1, 2],
		"classes": ["LT1 & 2", "LT3 & 4"],
		"image_size": 224
	}`)

	meta, err := LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 224, 224}, meta.InputShape)
	assert.Equal(t, []string{"LT1 & 2", "LT3 & 4"}, meta.Classes)
	assert.Equal(t, 224, meta.ImageSize)
	assert.Equal(t, "input", meta.InputName)
	assert.Equal(t, "output", meta.OutputName)
	assert.False(t, meta.Probabilities)
}

func TestLoadMetadata_Invalid(t *testing.T) {
	tests := map[string]string{
		"no classes":    `{"image_size": 224, "classes": []}`,
		"no image size": `{"classes": ["LT1 & 2"]}`,
		"bad json":      `{"classes": [`,
		"input shape mismatch": `{"input_shape": [1, 3, 128, 128], "output_shape": [1, 2],
			"classes": ["LT1 & 2", "LT3 & 4"], "image_size": 224}`,
		"missing input shape": `{"output_shape": [1, 2], "classes": ["LT1 & 2"], "image_size": 224}`,
		"output too small": `{"input_shape": [1, 3, 224, 224], "output_shape": [1, 1],
			"classes": ["LT1 & 2", "LT3 & 4"], "image_size": 224}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMetadata(writeFile(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadMetadata(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestONNXClassifier_ClassifyAfterClose(t *testing.T) {
	c := &ONNXClassifier{metadata: Metadata{Classes: []string{"LT1 & 2"}}}
	c.Close()

	_, _, err := c.Classify(context.Background(), models.ImageTensor{Size: 1, Data: make([]float32, 3)})
	assert.ErrorIs(t, err, ErrClassifierClosed)
}
