// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/linkmind/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// minContentChars is the minimum article length worth summarizing.
// Shorter content produces degenerate summaries.
const minContentChars = 50

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client          llms.Model
	maxContentChars int
	logger          *slog.Logger
}

// summaryResponse is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type summaryResponse struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.SummarizerHost),
		openai.WithToken("none"),
		openai.WithModel(config.SummarizerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		client:          client,
		maxContentChars: config.MaxContentChars,
		logger:          slog.Default().With("component", "openai-summarizer"),
	}, nil
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize produces a summary and tags for an article using an LLM.
// Failures are mapped onto the ai package's typed errors.
func (s *Summarizer) Summarize(ctx context.Context, title, content string) (*ai.Summary, error) {
	content = strings.TrimSpace(content)
	if len(content) < minContentChars {
		return nil, fmt.Errorf("%w: article body too short (%d chars)", ai.ErrInvalidContent, len(content))
	}

	prompt := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(summarizationPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildUserPrompt(title, content, s.maxContentChars)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result summaryResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := s.client.GenerateContent(ctx, prompt, llms.WithTemperature(0.5), llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, classifyError(err)
		}

		if len(response.Choices) < 1 {
			lastErr = errors.New("no choices returned from model")
			continue
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			s.logger.Warn("error parsing summarizer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if strings.TrimSpace(result.Summary) == "" {
			lastErr = errors.New("model returned empty summary")
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		// Persistently malformed responses are a content problem, not a
		// service outage; retrying the whole job will not help.
		s.logger.Error("failed to parse summarizer response after retries", "err", lastErr)
		return nil, fmt.Errorf("%w: %v", ai.ErrInvalidContent, lastErr)
	}

	return &ai.Summary{
		Text: strings.TrimSpace(result.Summary),
		Tags: result.Tags,
	}, nil
}
