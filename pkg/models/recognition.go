package models

import "time"

// RawUpload is the uploaded file as handed over by the transport layer.
// It is never persisted.
type RawUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Size returns the raw byte size of the upload
func (u RawUpload) Size() int64 {
	return int64(len(u.Data))
}

// ImageTensor is a CHW float grid of 3 channels, Size x Size, with values in [0,1]
type ImageTensor struct {
	Size int
	Data []float32
}

// RecognitionResult is a validated classifier answer
type RecognitionResult struct {
	HallID     string  `json:"hall_id"`
	Confidence float64 `json:"confidence"`
}

// ProcessingTimings records how long each pipeline stage took for one call
type ProcessingTimings struct {
	RequestID string
	Decode    time.Duration
	Validate  time.Duration
	Inference time.Duration
	Schedule  time.Duration
	Total     time.Duration
}
