package openai

import (
	"context"
	"errors"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/file-analyzer/internal/core/domain"
)

type Summarizer struct {
	client *Client
}

func NewSummarizer(client *Client) *Summarizer {
	return &Summarizer{client: client}
}

// Summarize issues one chat completion with the summary instruction as the
// system turn and the extracted text as the user turn.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrSummarization, "generate summary", errors.New("text is empty"))
	}

	summary, err := s.client.complete(ctx, "summarize", goopenai.ChatCompletionRequest{
		Model:    s.client.model,
		Messages: buildSummaryMessages(text),
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrSummarization, "generate summary", err)
	}
	return summary, nil
}
