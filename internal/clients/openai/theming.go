package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deckforge/deckforge-backend/internal/types"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	Messages       []chatMessage  `json:"messages"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var themedCardsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"cards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"originalCardName":  map[string]any{"type": "string"},
					"themedName":        map[string]any{"type": "string"},
					"themedFlavorText":  map[string]any{"type": "string"},
					"themedConcept":     map[string]any{"type": "string"},
					"themedImagePrompt": map[string]any{"type": "string"},
					"constraintsApplied": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
				"required": []string{
					"originalCardName",
					"themedName",
					"themedFlavorText",
					"themedConcept",
					"themedImagePrompt",
					"constraintsApplied",
				},
			},
		},
	},
	"required": []string{"cards"},
}

// ThemeDeck issues the single batched theming call for a deck and returns
// the model's per-card payloads in response order.
func (c *Client) ThemeDeck(ctx context.Context, themeUniverse, artStyleBrief string, cards []types.ThemeCandidate) ([]types.ThemedCardPayload, error) {
	prompt, err := BuildThemingPrompt(themeUniverse, artStyleBrief, cards)
	if err != nil {
		return nil, err
	}

	req := chatCompletionsRequest{
		Model:       c.textModel,
		Temperature: 0.2,
		ResponseFormat: map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "themed_deck_cards",
				"strict": true,
				"schema": themedCardsSchema,
			},
		},
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert MTG Universe-Beyond card themer."},
			{Role: "user", Content: prompt},
		},
	}

	var resp chatCompletionsResponse
	if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("OpenAI returned empty content.")
	}

	var parsed struct {
		Cards []types.ThemedCardPayload `json:"cards"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("OpenAI returned invalid themed card payload: %w", err)
	}
	if parsed.Cards == nil {
		return nil, errors.New("OpenAI returned invalid themed card payload.")
	}
	return parsed.Cards, nil
}
