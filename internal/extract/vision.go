package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/invoiceguard/invoiceguard/internal/llm"
)

// Transcriber uses a vision-capable language model as an OCR engine: one page
// image in, transcribed text out.
type Transcriber struct {
	client llm.Client
	logger *slog.Logger
}

func NewTranscriber(client llm.Client, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{client: client, logger: logger}
}

// TranscribePage sends one image file to the vision model with the
// transcription prompt and returns the trimmed text.
func (t *Transcriber) TranscribePage(ctx context.Context, imagePath string) (string, error) {
	b, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read page image: %w", err)
	}
	out, err := t.client.Complete(ctx, llm.CompletionRequest{
		Prompt: llm.VisionTranscriptionPrompt,
		Images: [][]byte{b},
	})
	if err != nil {
		return "", fmt.Errorf("vision transcription: %w", err)
	}
	return strings.TrimSpace(out), nil
}
