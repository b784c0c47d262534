package openai

import goopenai "github.com/sashabaranov/go-openai"

const (
	summarySystemPrompt = "Create a concise but informative summary of the following content. Use bullet points if the content is structured."
	imagePrompt         = "Write a detailed description of this image. If it contains text, transcribe the text as well."
)

func buildSummaryMessages(text string) []goopenai.ChatCompletionMessage {
	return []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: summarySystemPrompt},
		{Role: goopenai.ChatMessageRoleUser, Content: text},
	}
}

func buildImageMessages(dataURL string) []goopenai.ChatCompletionMessage {
	return []goopenai.ChatCompletionMessage{
		{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: imagePrompt},
				{
					Type: goopenai.ChatMessagePartTypeImageURL,
					ImageURL: &goopenai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: goopenai.ImageURLDetailAuto,
					},
				},
			},
		},
	}
}
