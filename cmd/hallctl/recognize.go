package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"go-hallnav/internal/container"
	"go-hallnav/internal/service"
	"go-hallnav/pkg/models"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize the hall in a local photo",
	Long: `Runs the same pipeline as POST /api/recognize_hall/ and prints the JSON
outcome. The exit status is non-zero when the outcome is not a success.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func runRecognize(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	upload := models.RawUpload{
		Data:        data,
		Filename:    filepath.Base(args[0]),
		ContentType: mimetype.Detect(data).String(),
	}
	out, status, _ := c.RecognitionService().Recognize(service.WithRequestID(ctx, uuid.New().String()), upload)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if !out.IsSuccess() {
		return fmt.Errorf("recognition failed with status %d", status)
	}
	return nil
}
