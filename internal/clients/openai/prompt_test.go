package openai

import (
	"strings"
	"testing"

	"github.com/deckforge/deckforge-backend/internal/types"
)

func TestBuildThemingPrompt(t *testing.T) {
	t.Parallel()

	cards := []types.ThemeCandidate{
		{
			OriginalCardName: "Karn, Scion of Urza",
			Quantity:         1,
			TypeLine:         "Legendary Planeswalker — Karn",
			IsLegendary:      true,
		},
		{
			OriginalCardName: "Shivan Dragon",
			Quantity:         2,
			TypeLine:         "Creature — Dragon",
			OracleText:       "Flying",
		},
	}

	prompt, err := BuildThemingPrompt("Star Wars", "gritty oil painting", cards)
	if err != nil {
		t.Fatalf("BuildThemingPrompt failed: %v", err)
	}

	wantFragments := []string{
		"Theme universe: Star Wars",
		"Art style brief: gritty oil painting",
		"GLOBAL RULES:",
		"CARD TYPE CONSTRAINTS:",
		"OUTPUT SCHEMA CONTRACT:",
		"CARDS JSON:",
		`"originalCardName":"Karn, Scion of Urza"`,
		`"originalCardName":"Shivan Dragon"`,
		"Legendary cards must become a specific named character.",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}

	// Every candidate is sent in one request; the prompt must carry the
	// whole deck context.
	if strings.Count(prompt, "originalCardName") < len(cards) {
		t.Fatalf("prompt does not include all candidates:\n%s", prompt)
	}
}

func TestBuildThemingPromptEmptyCandidates(t *testing.T) {
	t.Parallel()

	prompt, err := BuildThemingPrompt("Star Wars", "oil painting", nil)
	if err != nil {
		t.Fatalf("BuildThemingPrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "CARDS JSON:\nnull") {
		t.Fatalf("unexpected empty candidates rendering:\n%s", prompt)
	}
}
