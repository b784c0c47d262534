package converter

import (
	"context"
	"fmt"
	"strings"
)

type audioConverter struct {
	transcriber Transcriber
}

func (audioConverter) accepts(ext string) bool { return ext == "mp3" || ext == "wav" }

func (c audioConverter) convert(ctx context.Context, src Source) (string, error) {
	transcript, err := c.transcriber.Transcribe(ctx, src.Name, src.Data)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	if transcript = strings.TrimSpace(transcript); transcript == "" {
		return "", nil
	}
	return "### Audio Transcript:\n" + transcript, nil
}

type imageConverter struct {
	describer ImageDescriber
}

func (imageConverter) accepts(ext string) bool {
	return extensions{"jpg", "jpeg", "png"}.accepts(ext)
}

func (c imageConverter) convert(ctx context.Context, src Source) (string, error) {
	description, err := c.describer.DescribeImage(ctx, src.Name, src.Data)
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}
	if description = strings.TrimSpace(description); description == "" {
		return "", nil
	}
	return "# Description:\n" + description, nil
}
