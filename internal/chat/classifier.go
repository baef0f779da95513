package chat

import "strings"

// Classifier maps free text to an Intent using ordered keyword rules.
// It is stateless and safe for concurrent use.
type Classifier struct {
	smallTalk []keywordRule
	topics    []topicRule
}

func NewClassifier() *Classifier {
	return &Classifier{
		smallTalk: smallTalkRules,
		topics:    topicRules,
	}
}

// Classify tests small-talk categories in fixed priority order, then the
// domain intents (AdminPriceEdit before OrderRequest), else IntentNone.
func (c *Classifier) Classify(text string) Intent {
	normalized := normalize(text)
	if normalized == "" {
		return IntentNone
	}

	if intent := c.SmallTalk(normalized); intent != IntentNone {
		return intent
	}
	if IsPriceEditCommand(normalized) {
		return IntentAdminPriceEdit
	}
	if IsOrderRequest(normalized) {
		return IntentOrderRequest
	}
	return IntentNone
}

// SmallTalk returns the first matching conversational intent.
func (c *Classifier) SmallTalk(text string) Intent {
	normalized := normalize(text)
	for _, rule := range c.smallTalk {
		if rule.regex.MatchString(normalized) {
			return rule.intent
		}
	}
	return IntentNone
}

// Topic returns the first keyword bucket matching text, or TopicNone.
func (c *Classifier) Topic(text string) Topic {
	normalized := normalize(text)
	for _, rule := range c.topics {
		if rule.regex.MatchString(normalized) {
			return rule.topic
		}
	}
	return TopicNone
}

// IsPriceEditCommand reports whether text looks like an admin price change,
// whether or not it parses.
func IsPriceEditCommand(text string) bool {
	return priceEditCommand.MatchString(text)
}

// IsOrderRequest reports whether text asks to put something in the cart.
func IsOrderRequest(text string) bool {
	normalized := normalize(text)
	if trackingPhrase.MatchString(normalized) {
		return false
	}
	for _, m := range orderLeadIn.FindAllStringSubmatch(normalized, -1) {
		if !orderLeadInStopWords[m[1]] {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
