package services

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedDeckCard is one aggregated decklist entry.
type ParsedDeckCard struct {
	Name     string
	Quantity int
}

// ParsedDecklist is the outcome of parsing a raw decklist text.
type ParsedDecklist struct {
	Cards        []ParsedDeckCard
	IgnoredLines []string
	InvalidLines []string
}

var (
	headerLineRegex = regexp.MustCompile(`(?i)^(deck|commander|sideboard)$`)
	countNameRegex  = regexp.MustCompile(`^(\d+)\s+(.+)$`)
	countXNameRegex = regexp.MustCompile(`^(\d+)[xX]\s+(.+)$`)
)

// ParseDecklist parses "N Name" / "NxName" lines. Blank and section header
// lines are ignored; unparseable lines are reported, not fatal. Duplicate
// names have their quantities summed, keeping first-seen order.
func ParseDecklist(decklistText string) ParsedDecklist {
	lines := strings.Split(strings.ReplaceAll(decklistText, "\r\n", "\n"), "\n")

	var ignoredLines, invalidLines []string
	var order []string
	byName := map[string]*ParsedDeckCard{}

	for _, rawLine := range lines {
		line := strings.TrimSpace(rawLine)

		if line == "" || headerLineRegex.MatchString(line) {
			ignoredLines = append(ignoredLines, rawLine)
			continue
		}

		match := countNameRegex.FindStringSubmatch(line)
		if match == nil {
			match = countXNameRegex.FindStringSubmatch(line)
		}
		if match == nil {
			invalidLines = append(invalidLines, rawLine)
			continue
		}

		quantity, err := strconv.Atoi(match[1])
		name := strings.TrimSpace(match[2])
		if err != nil || quantity <= 0 || name == "" {
			invalidLines = append(invalidLines, rawLine)
			continue
		}

		if existing, ok := byName[name]; ok {
			existing.Quantity += quantity
			continue
		}
		byName[name] = &ParsedDeckCard{Name: name, Quantity: quantity}
		order = append(order, name)
	}

	cards := make([]ParsedDeckCard, 0, len(order))
	for _, name := range order {
		cards = append(cards, *byName[name])
	}

	return ParsedDecklist{
		Cards:        cards,
		IgnoredLines: ignoredLines,
		InvalidLines: invalidLines,
	}
}
