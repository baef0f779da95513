package chat

import (
	"regexp"
	"strings"
	"unicode"
)

// keywordRule matches any of a set of phrases on word boundaries.
type keywordRule struct {
	regex  *regexp.Regexp
	intent Intent
}

type topicRule struct {
	regex *regexp.Regexp
	topic Topic
}

// phrases compiles a case-insensitive alternation. Word boundaries are added
// only on sides that start or end with a word character, so "??" still works.
func phrases(list ...string) *regexp.Regexp {
	parts := make([]string, 0, len(list))
	for _, p := range list {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		words := strings.Fields(p)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		expr := strings.Join(words, `\s+`)
		if isWordRune(rune(p[0])) {
			expr = `\b` + expr
		}
		if isWordRune(rune(p[len(p)-1])) {
			expr += `\b`
		}
		parts = append(parts, expr)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// smallTalkRules are evaluated in order; the first match wins.
var smallTalkRules = []keywordRule{
	{phrases("hi", "hello", "hey", "hiya", "howdy", "greetings", "good morning", "good afternoon",
		"good evening", "what's up", "whats up", "sup", "yo", "hola", "salam", "assalamualaikum"), IntentGreeting},
	{phrases("bye", "goodbye", "good bye", "see you", "see ya", "cya", "farewell", "good night",
		"goodnight", "take care", "gotta go", "talk to you later"), IntentFarewell},
	{phrases("thanks", "thank you", "thank u", "thx", "ty", "tq", "appreciate it", "much appreciated",
		"cheers", "terima kasih"), IntentThanks},
	{phrases("awesome", "amazing", "excellent", "fantastic", "wonderful", "delicious", "tasty", "yummy",
		"love it", "love this", "love your", "great job", "good job", "well done", "you're great",
		"you are great", "you're the best", "great service", "nice work", "brilliant"), IntentCompliment},
	{phrases("bad", "terrible", "awful", "horrible", "worst", "disgusting", "disappointed", "disappointing",
		"complaint", "complain", "cold food", "food was cold", "not happy", "unhappy", "wrong order",
		"wrong item", "missing", "refund", "late delivery", "too late", "rude", "poor service"), IntentComplaint},
	{phrases("are you a bot", "are you a robot", "are you human", "are you real", "are you an ai",
		"are you ai", "who are you", "what are you", "who made you", "who built you", "your name",
		"chatgpt", "artificial intelligence"), IntentAIQuestion},
	{phrases("joke", "jokes", "make me laugh", "something funny", "pun"), IntentJokeRequest},
	{phrases("help", "how do i", "how does this work", "what can you do", "what can i do", "assist",
		"assistance", "support", "guide me", "instructions", "commands"), IntentHelpRequest},
	{phrases("weather", "temperature", "raining", "what time is it", "current time", "time now",
		"today's date", "todays date", "what's the date", "what day is it"), IntentWeatherTimeQuery},
	{phrases("confused", "confusing", "don't understand", "dont understand", "what do you mean", "huh",
		"i'm lost", "im lost", "makes no sense", "doesn't make sense", "??"), IntentConfusion},
}

// topicRules answer messages that carry no intent. Order is significant.
var topicRules = []topicRule{
	{phrases("menu", "dishes", "dish", "food", "foods", "what do you have", "what do you serve",
		"what's good", "specials", "recommend", "recommendation", "options", "categories"), TopicMenu},
	{phrases("deliver", "delivery", "delivering", "shipping", "courier", "rider", "how long", "eta"), TopicDelivery},
	{phrases("pay", "payment", "payments", "card", "credit card", "debit card", "cash", "e-wallet",
		"ewallet", "fpx", "online banking", "grabpay", "touch n go", "tng"), TopicPayment},
	{phrases("track", "tracking", "status", "where is my order", "where's my order", "my order",
		"my orders", "order history", "past orders", "recent orders", "previous orders"), TopicTrack},
	{phrases("cart", "basket", "remove", "checkout", "check out"), TopicCart},
	{phrases("hours", "open", "opening", "close", "closing", "closed", "operating", "what time do you"), TopicHours},
	{phrases("location", "located", "address", "where are you", "branch", "branches", "outlet",
		"near me", "directions"), TopicLocation},
	{phrases("calorie", "calories", "nutrition", "nutritional", "protein", "carbs", "healthy", "diet",
		"fat", "sugar"), TopicNutrition},
	{phrases("allergy", "allergies", "allergic", "allergen", "allergens", "gluten", "peanut", "peanuts",
		"nut", "nuts", "dairy", "lactose", "shellfish", "vegan", "vegetarian", "halal"), TopicAllergy},
	{phrases("price", "prices", "cost", "costs", "how much", "expensive", "cheap", "affordable"), TopicPrice},
	{phrases("job", "jobs", "hiring", "career", "careers", "vacancy", "vacancies", "work for you",
		"work here", "apply"), TopicJobs},
	{phrases("review", "reviews", "rating", "ratings", "feedback", "testimonial", "testimonials", "stars"), TopicReviews},
}

var (
	priceEditCommand = regexp.MustCompile(`(?i)\b(?:modify|change|update|set)\b.*\bprice\b|\bprice\s+to\s+rm\b`)

	// orderLeadIn captures the word after an ordering verb so infinitives
	// ("want to know") and possessives ("get my order") can be rejected.
	orderLeadIn = regexp.MustCompile(`(?i)\b(?:order|get|add|buy|want|grab|i'?d like|i would like|can i have|i'?ll have|give me)\s+([a-z0-9'#]+)`)

	trackingPhrase = phrases("track", "tracking", "status", "where is my order", "where's my order",
		"order history", "past orders", "recent orders", "previous orders", "my orders")

	orderLeadInStopWords = map[string]bool{
		"to": true, "my": true, "your": true, "status": true, "history": true, "in": true,
		"out": true, "help": true, "back": true, "there": true, "started": true, "it": true,
		"this": true, "that": true, "ready": true, "know": true, "touch": true, "here": true,
	}
)
