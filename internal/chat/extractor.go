package chat

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ExtractedOrderItem is a (name, quantity) pair parsed from a message.
// Quantity is always at least 1.
type ExtractedOrderItem struct {
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	Personalization string `json:"personalization,omitempty"`
}

// KnownMenuNames is the fixed list scanned when no pattern matches.
var KnownMenuNames = []string{
	"Classic Burger",
	"Cheeseburger",
	"Margherita Pizza",
	"Pepperoni Pizza",
	"Caesar Salad",
	"Chicken Wings",
	"French Fries",
	"Spaghetti Carbonara",
	"Chocolate Cake",
	"Pudding",
	"Cola",
	"Lemonade",
	"Iced Tea",
	"Nasi Lemak",
	"Mee Goreng",
	"Teh Tarik",
}

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

const (
	itemName   = `([a-z][a-z'&\- ]*?)`
	itemEnd    = `\s*(?:\bto\s+(?:my\s+)?cart\b|\band\b|,|[.!?]|$)`
	leadIn     = `\b(?:order|get|add|buy|want)\s+`
	optLeadIn  = `(?:` + leadIn + `)?`
	numberWord = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve`
)

var (
	numericPattern = regexp.MustCompile(`(?i)` + optLeadIn + `\b(\d+)\s*x?\s+` + itemName + itemEnd)
	wordPattern    = regexp.MustCompile(`(?i)` + optLeadIn + `\b(` + numberWord + `)\s+` + itemName + itemEnd)
	// An article only counts as a quantity straight after the verb, so
	// "order pudding with a cherry" keeps the pudding.
	articlePattern = regexp.MustCompile(`(?i)` + leadIn + `(?:(?:me|us)\s+)?\b(an?|some)\s+` + itemName + itemEnd)
	leadInVerb     = regexp.MustCompile(`(?i)` + leadIn)
	cartSuffix     = regexp.MustCompile(`(?i)\s+to\s+(?:my\s+)?cart\b.*$`)
	itemSeparator  = regexp.MustCompile(`(?i)\s*(?:,|\band\b)\s*`)

	personalizationSplit = regexp.MustCompile(`(?i)\s+\b(with|without|no|extra|less)\b\s+`)
	leadingFiller        = regexp.MustCompile(`(?i)^(?:(?:me|us|the|a|an|some|please|to|order|get|add|buy|want)\s+)+`)
	trailingFiller       = regexp.MustCompile(`(?i)(?:\s+(?:please|pls|thanks|thank you|now))+$`)
)

// ExtractOrderItems parses a message into order lines. Strategies run in
// order and the first one producing at least one item wins: numeric
// quantities, spelled quantities, a bare item after an ordering verb, then a
// scan for known menu names.
func ExtractOrderItems(text string) []ExtractedOrderItem {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if items := extractQuantified(numericPattern, text, parseDigits); len(items) > 0 {
		return items
	}
	if items := extractQuantified(wordPattern, text, parseWordNumber, articlePattern); len(items) > 0 {
		return items
	}
	if items := extractBare(text); len(items) > 0 {
		return items
	}
	return scanKnownNames(text)
}

// extractQuantified collects the matches of every pattern in text order.
// Matches overlapping an earlier one are skipped.
func extractQuantified(primary *regexp.Regexp, text string, quantity func(string) int, extra ...*regexp.Regexp) []ExtractedOrderItem {
	type match struct {
		start, end int
		qty, name  string
	}
	var matches []match
	for _, pattern := range append([]*regexp.Regexp{primary}, extra...) {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			matches = append(matches, match{
				start: loc[0],
				end:   loc[1],
				qty:   text[loc[2]:loc[3]],
				name:  text[loc[4]:loc[5]],
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var items []ExtractedOrderItem
	covered := -1
	for _, m := range matches {
		if m.start < covered {
			continue
		}
		covered = m.end
		if item, ok := newItem(m.name, quantity(m.qty)); ok {
			items = append(items, item)
		}
	}
	return items
}

func extractBare(text string) []ExtractedOrderItem {
	// The last ordering verb wins so "I want to order pudding" yields "pudding".
	locs := leadInVerb.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	candidate := text[locs[len(locs)-1][1]:]
	candidate = cartSuffix.ReplaceAllString(candidate, "")

	var items []ExtractedOrderItem
	for _, part := range itemSeparator.Split(candidate, -1) {
		if item, ok := newItem(part, 1); ok {
			items = append(items, item)
		}
	}
	return items
}

func scanKnownNames(text string) []ExtractedOrderItem {
	lower := strings.ToLower(text)
	var items []ExtractedOrderItem
	for _, name := range KnownMenuNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			items = append(items, ExtractedOrderItem{Name: name, Quantity: 1})
		}
	}
	return items
}

func newItem(raw string, quantity int) (ExtractedOrderItem, bool) {
	name, personalization := splitPersonalization(cleanName(raw))
	if name == "" {
		return ExtractedOrderItem{}, false
	}
	switch strings.ToLower(name) {
	case "order", "cart":
		return ExtractedOrderItem{}, false
	}
	if quantity < 1 {
		quantity = 1
	}
	return ExtractedOrderItem{Name: name, Quantity: quantity, Personalization: personalization}, true
}

func cleanName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimRight(name, ".,!?;: ")
	name = leadingFiller.ReplaceAllString(name, "")
	name = trailingFiller.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

func splitPersonalization(name string) (string, string) {
	loc := personalizationSplit.FindStringIndex(name)
	if loc == nil {
		return name, ""
	}
	return strings.TrimSpace(name[:loc[0]]), strings.TrimSpace(name[loc[0]:])
}

func parseDigits(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return n
}

func parseWordNumber(s string) int {
	if n, ok := wordNumbers[strings.ToLower(s)]; ok {
		return n
	}
	return 1
}
