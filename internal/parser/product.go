// Package parser turns free-form chat text into structured records.
// Everything here is pure; callers own lookups and persistence.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

const (
	// UntitledProduct is the fallback title for a message with an empty first line.
	UntitledProduct = "Untitled Product"

	maxDescriptionLen = 500
)

var (
	numberPattern   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	currencyPattern = regexp.MustCompile(`(?i)(?:gh₵|ghs?|₵)\s*(\d+(?:\.\d+)?)`)
)

// ProductFields is the result of parsing a sell-intent message.
type ProductFields struct {
	Title       string
	Price       float64
	Description string
	Category    string
}

type labelKind int

const (
	labelNone labelKind = iota
	labelTitle
	labelPrice
	labelDescription
	labelCategory
)

// Checked in this order; a line is assigned to the first kind that matches.
var labels = []struct {
	kind  labelKind
	names []string
}{
	{labelTitle, []string{"title:", "name:"}},
	{labelPrice, []string{"price:", "cost:"}},
	{labelDescription, []string{"description:", "details:"}},
	{labelCategory, []string{"category:"}},
}

// ParseProduct extracts listing fields from a seller's message.
//
// Lines carrying a label ("Title:", "Price:", ...) are read first, the last
// occurrence of a label winning. When neither a title nor a price came out
// of the labels, the message is read as free text: the first line is the
// title, a currency-prefixed amount anywhere is the price, and the remaining
// lines form the description.
func ParseProduct(text string) ProductFields {
	lines := splitLines(text)
	fields := ProductFields{Category: domain.DefaultCategory}

	for _, line := range lines {
		kind, value := matchLabel(line)
		switch kind {
		case labelTitle:
			fields.Title = value
		case labelPrice:
			fields.Price = firstNumber(line)
		case labelDescription:
			fields.Description = value
		case labelCategory:
			fields.Category = value
			if fields.Category == "" {
				fields.Category = domain.DefaultCategory
			}
		}
	}

	if fields.Title == "" && fields.Price == 0 {
		fields.Title = UntitledProduct
		if lines[0] != "" {
			fields.Title = lines[0]
		}
		if m := currencyPattern.FindStringSubmatch(text); m != nil {
			fields.Price = parseAmount(m[1])
		}
		fields.Description = truncate(strings.Join(lines[1:], " "), maxDescriptionLen)
	}

	return fields
}

// splitLines splits text into trimmed lines. Blank lines are kept so the
// first line is always the first line the sender typed.
func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// matchLabel finds the first label contained in line and returns the text
// following it.
func matchLabel(line string) (labelKind, string) {
	lower := strings.ToLower(line)
	for _, l := range labels {
		for _, name := range l.names {
			idx := strings.Index(lower, name)
			if idx < 0 {
				continue
			}
			// Lowercasing can change byte lengths outside ASCII.
			if len(lower) != len(line) {
				_, after, _ := strings.Cut(line, ":")
				return l.kind, strings.TrimSpace(after)
			}
			return l.kind, strings.TrimSpace(line[idx+len(name):])
		}
	}
	return labelNone, ""
}

func firstNumber(s string) float64 {
	return parseAmount(numberPattern.FindString(s))
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
