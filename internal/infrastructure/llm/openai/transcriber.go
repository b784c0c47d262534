package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/file-analyzer/internal/infrastructure/resilience"
)

type Transcriber struct {
	client *Client
}

func NewTranscriber(client *Client) *Transcriber {
	return &Transcriber{client: client}
}

func (t *Transcriber) Transcribe(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("audio %s is empty", name)
	}

	response, err := resilience.Do(ctx, t.client.executor, "openai.transcribe", func(callCtx context.Context) (goopenai.AudioResponse, error) {
		return t.client.api.CreateTranscription(callCtx, goopenai.AudioRequest{
			Model:    t.client.transcriptionModel,
			FilePath: name,
			Reader:   bytes.NewReader(data),
		})
	}, classifyOpenAIError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("openai transcribe", err)
	}
	return strings.TrimSpace(response.Text), nil
}
