package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deckforge/deckforge-backend/internal/types"
)

var promptGlobalRules = []string{
	"You create Universe-Beyond style reskins for Magic cards.",
	"Preserve gameplay intent from the source card. Do not invent new mechanics.",
	"Output concise and production-safe text only.",
	"Use the full deck context to keep names and tone coherent.",
}

var promptCardTypeRules = []string{
	"Legendary cards must become a specific named character.",
	"Keep card identity coherent with source card type line (artifact stays artifact-themed, etc).",
	"Do not output alternative versions of basic lands (they are excluded from generation).",
}

var promptOutputRules = []string{
	"Return strict JSON object with top-level key `cards`.",
	"Each `cards` item must include: originalCardName, themedName, themedFlavorText, themedConcept, themedImagePrompt, constraintsApplied.",
	"Keep `themedImagePrompt` short (max ~35 words).",
	"Keep `themedConcept` short (max ~30 words).",
	"constraintsApplied must be an array of short strings.",
}

// BuildThemingPrompt renders one batched theming request covering the whole
// deck; the model sees every candidate at once so names stay coherent.
func BuildThemingPrompt(themeUniverse, artStyleBrief string, cards []types.ThemeCandidate) (string, error) {
	var rules []string
	rules = append(rules, "GLOBAL RULES:")
	for _, rule := range promptGlobalRules {
		rules = append(rules, "- "+rule)
	}
	rules = append(rules, "", "CARD TYPE CONSTRAINTS:")
	for _, rule := range promptCardTypeRules {
		rules = append(rules, "- "+rule)
	}
	rules = append(rules, "", "OUTPUT SCHEMA CONTRACT:")
	for _, rule := range promptOutputRules {
		rules = append(rules, "- "+rule)
	}

	cardJSON, err := json.Marshal(cards)
	if err != nil {
		return "", fmt.Errorf("marshal theming cards: %w", err)
	}

	return strings.Join([]string{
		"Create themed card reskins for this deck.",
		"Theme universe: " + themeUniverse,
		"Art style brief: " + artStyleBrief,
		strings.Join(rules, "\n"),
		"",
		"CARDS JSON:",
		string(cardJSON),
	}, "\n"), nil
}
