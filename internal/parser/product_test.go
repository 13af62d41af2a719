package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProductLabels(t *testing.T) {
	text := "Sell product\nTitle: Kente Cloth\nPrice: GHS 45.50\nDescription: Handwoven, 6 yards\nCategory: Fashion"

	got := ParseProduct(text)

	assert.Equal(t, "Kente Cloth", got.Title)
	assert.Equal(t, 45.50, got.Price)
	assert.Equal(t, "Handwoven, 6 yards", got.Description)
	assert.Equal(t, "Fashion", got.Category)
}

func TestParseProductAlternateLabels(t *testing.T) {
	text := "name: Shea Butter\ncost: 20\ndetails: 500g tub"

	got := ParseProduct(text)

	assert.Equal(t, "Shea Butter", got.Title)
	assert.Equal(t, 20.0, got.Price)
	assert.Equal(t, "500g tub", got.Description)
	assert.Equal(t, "General", got.Category)
}

func TestParseProductLastLabelWins(t *testing.T) {
	got := ParseProduct("Title: First\nTitle: Second\nPrice: 10\nPrice: 12.5")

	assert.Equal(t, "Second", got.Title)
	assert.Equal(t, 12.5, got.Price)
}

func TestParseProductLabelsAreCaseInsensitive(t *testing.T) {
	got := ParseProduct("TITLE: Radio\nPRICE: ghs 80")

	assert.Equal(t, "Radio", got.Title)
	assert.Equal(t, 80.0, got.Price)
}

func TestParseProductLabeledTitleBeatsFallback(t *testing.T) {
	// The first line would become the title under the free-text reading.
	text := "I want to sell this today\nTitle: Leather Sandals\nGHS 99"

	got := ParseProduct(text)

	assert.Equal(t, "Leather Sandals", got.Title)
	assert.Equal(t, 0.0, got.Price)
	assert.Empty(t, got.Description)
}

func TestParseProductLabeledPriceOnlySkipsFallback(t *testing.T) {
	got := ParseProduct("selling my phone\nprice: 300")

	assert.Empty(t, got.Title)
	assert.Equal(t, 300.0, got.Price)
}

func TestParseProductFreeText(t *testing.T) {
	got := ParseProduct("I'm selling shoes for ghs20")

	assert.Equal(t, "I'm selling shoes for ghs20", got.Title)
	assert.Equal(t, 20.0, got.Price)
	assert.Empty(t, got.Description)
	assert.Equal(t, "General", got.Category)
}

func TestParseProductFreeTextMultiline(t *testing.T) {
	text := "Sell: Used laptop\n  Core i5, 8GB RAM  \n\nCharger included ₵ 1500.00"

	got := ParseProduct(text)

	assert.Equal(t, "Sell: Used laptop", got.Title)
	assert.Equal(t, 1500.0, got.Price)
	assert.Equal(t, "Core i5, 8GB RAM  Charger included ₵ 1500.00", got.Description)
}

func TestParseProductFreeTextWithoutPrice(t *testing.T) {
	got := ParseProduct("product photos coming\nnice bags")

	assert.Equal(t, "product photos coming", got.Title)
	assert.Equal(t, 0.0, got.Price)
	assert.Equal(t, "nice bags", got.Description)
}

func TestParseProductEmptyText(t *testing.T) {
	got := ParseProduct("   ")

	assert.Equal(t, UntitledProduct, got.Title)
	assert.Equal(t, 0.0, got.Price)
	assert.Equal(t, "General", got.Category)
}

func TestParseProductTruncatesDescription(t *testing.T) {
	text := "sell bulk rice\n" + strings.Repeat("a", 600)

	got := ParseProduct(text)

	assert.Len(t, got.Description, 500)
}

func TestParseProductEmptyCategoryFallsBack(t *testing.T) {
	got := ParseProduct("Title: Mat\nCategory:   ")

	assert.Equal(t, "General", got.Category)
}

func TestParseProductLeadingBlankLine(t *testing.T) {
	got := ParseProduct("\nShoes ghs20")

	assert.Equal(t, UntitledProduct, got.Title)
	assert.Equal(t, 20.0, got.Price)
	assert.Equal(t, "Shoes ghs20", got.Description)
}
