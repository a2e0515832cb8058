package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/plateful/recipescout/internal/llm"
	"github.com/plateful/recipescout/internal/recipe"
)

const defaultExcerptChars = 12000

const fieldSystemMessage = "You are a recipe extraction assistant. Respond with strict JSON only, no narration. The JSON schema is {\"title\": string, \"description\": string, \"ingredients\": [{\"name\": string, \"quantity\": string, \"unit\": string}], \"instructions\": string[], \"servings\": int, \"totalMinutes\": int, \"prepMinutes\": int, \"cookMinutes\": int, \"cuisines\": string[], \"imageUrl\": string}. Extract only what the page states; never invent ingredients or steps. If the page is not a single recipe, respond {\"title\": \"\", \"ingredients\": [], \"instructions\": []}."

// FieldStrategy asks a chat model to fill the recipe schema from the page
// text. It is the first strategy in the engine's order.
type FieldStrategy struct {
	Client llm.Client
	Model  string
	// MaxExcerptChars truncates the page text handed to the model.
	// Zero means 12000.
	MaxExcerptChars int
}

func (s *FieldStrategy) Name() string { return string(recipe.MethodFieldExtraction) }

func (s *FieldStrategy) TryExtract(ctx context.Context, url string, body []byte) (*recipe.Recipe, error) {
	if s.Client == nil || s.Model == "" {
		return nil, errors.New("field strategy not configured")
	}
	title, text := pageText(body)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	max := s.MaxExcerptChars
	if max <= 0 {
		max = defaultExcerptChars
	}
	if len(text) > max {
		text = text[:max]
	}

	user := fmt.Sprintf("URL: %s\nPage title: %s\n\nPage text:\n%s", url, title, text)
	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fieldSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("field extraction call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices")
	}
	raw := stripFences(strings.TrimSpace(resp.Choices[0].Message.Content))
	var rec recipe.Recipe
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}
	if strings.TrimSpace(rec.Title) == "" {
		// Model judged the page not to be a single recipe.
		return nil, nil
	}
	rec.Method = recipe.MethodFieldExtraction
	return &rec, nil
}

// stripFences removes a markdown code fence some models insist on wrapping
// JSON in.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
