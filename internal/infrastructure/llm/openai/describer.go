package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

type ImageDescriber struct {
	client *Client
}

func NewImageDescriber(client *Client) *ImageDescriber {
	return &ImageDescriber{client: client}
}

func (d *ImageDescriber) Describe(ctx context.Context, path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return d.DescribeImage(ctx, filepath.Base(path), raw)
}

// DescribeImage sends the image inline as a data URL. An empty description is
// returned as-is; callers decide on a fallback.
func (d *ImageDescriber) DescribeImage(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image %s is empty", name)
	}
	dataURL := "data:" + imageMIMEType(name, data) + ";base64," + base64.StdEncoding.EncodeToString(data)

	return d.client.complete(ctx, "describe_image", goopenai.ChatCompletionRequest{
		Model:    d.client.visionModel,
		Messages: buildImageMessages(dataURL),
	})
}

func imageMIMEType(name string, data []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); strings.HasPrefix(byExt, "image/") {
		return byExt
	}
	return http.DetectContentType(data)
}
