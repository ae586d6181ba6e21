package types

// CardDetails is the baseline metadata resolved for one original card name.
type CardDetails struct {
	OracleText  string `json:"oracle_text"`
	TypeLine    string `json:"type_line"`
	ManaCost    string `json:"mana_cost"`
	IsLegendary bool   `json:"is_legendary"`
	IsBasicLand bool   `json:"is_basic_land"`
}

// ResolvedCardImage is the frame lookup result used at deck creation.
type ResolvedCardImage struct {
	ScryfallID string `json:"scryfall_id"`
	ImageURL   string `json:"image_url"`
}

// ThemeCandidate is one card descriptor sent to the text theming model.
type ThemeCandidate struct {
	OriginalCardName string `json:"originalCardName"`
	Quantity         int    `json:"quantity"`
	OracleText       string `json:"oracleText"`
	TypeLine         string `json:"typeLine"`
	ManaCost         string `json:"manaCost"`
	IsLegendary      bool   `json:"isLegendary"`
}

// ThemedCardPayload is one themed entry returned by the text theming model.
type ThemedCardPayload struct {
	OriginalCardName   string   `json:"originalCardName"`
	ThemedName         string   `json:"themedName"`
	ThemedFlavorText   string   `json:"themedFlavorText"`
	ThemedConcept      string   `json:"themedConcept"`
	ThemedImagePrompt  string   `json:"themedImagePrompt"`
	ConstraintsApplied []string `json:"constraintsApplied"`
}
