package chat

import (
	"fmt"
	"strings"

	"quickbite/internal/models"
)

// Response is one composed reply with its suggestion chips.
type Response struct {
	Reply       string
	Suggestions []string
}

var smallTalkReplies = map[Intent][]string{
	IntentGreeting: {
		"Hi there! Welcome to QuickBite. What are you craving today?",
		"Hello! Ready to order something delicious?",
		"Hey! I can help you browse the menu, fill your cart or track an order.",
	},
	IntentFarewell: {
		"Goodbye! Hope to see you again soon.",
		"Bye for now. Enjoy your meal!",
		"See you next time at QuickBite!",
	},
	IntentThanks: {
		"You're welcome!",
		"Happy to help!",
		"Anytime. Enjoy your food!",
	},
	IntentCompliment: {
		"Thank you! Our kitchen team will be thrilled to hear that.",
		"That's so kind of you, thanks!",
		"Glad you're enjoying QuickBite!",
	},
	IntentComplaint: {
		"I'm really sorry about that. Please share your order number and we'll make it right.",
		"Sorry to hear that. Our support team will look into it as soon as possible.",
		"That's not the experience we want for you. Could you tell me more so we can fix it?",
	},
	IntentAIQuestion: {
		"I'm QuickBite's virtual assistant. I can take orders, answer menu questions and track deliveries.",
		"I'm a friendly chatbot, not a human, but I know this menu inside out!",
	},
	IntentJokeRequest: {
		"Why did the burger go to the gym? To get better buns!",
		"What do you call a fake noodle? An impasta!",
		"Why did the cookie go to the doctor? It felt crummy.",
	},
	IntentHelpRequest: {
		"You can ask me about the menu, say something like \"add 2 Classic Burger to my cart\", or ask to track your order.",
		"Try \"show me the menu\", \"order two pudding\" or \"where is my order\".",
	},
	IntentWeatherTimeQuery: {
		"I can't check the weather or the clock, but I can tell you when we're open!",
		"I'm not great with weather or time, but whatever the weather, we deliver.",
	},
	IntentConfusion: {
		"Sorry for the confusion! Try asking about the menu, your cart or your order.",
		"Let me help. You can say \"menu\", \"cart\" or \"track my order\".",
	},
}

var topicReplies = map[Topic][]string{
	TopicDelivery: {
		"We deliver within 10 km of each outlet. Most orders arrive in 30 to 45 minutes.",
		"Delivery usually takes 30 to 45 minutes, and it's free for orders above RM 30.",
	},
	TopicPayment: {
		"We accept credit and debit cards, FPX online banking, e-wallets and cash on delivery.",
		"You can pay by card, e-wallet, FPX or cash on delivery.",
	},
	TopicHours: {
		"We're open every day from 10am to 11pm.",
		"Our kitchens run daily from 10am until 11pm.",
	},
	TopicLocation: {
		"You can find our outlets in Kuala Lumpur, Petaling Jaya and Subang Jaya.",
		"We have branches across the Klang Valley. Delivery covers 10 km around each one.",
	},
	TopicNutrition: {
		"Nutrition details are listed on each menu item. Our salads are the lightest options.",
		"Looking for something lighter? Try the Caesar Salad or Iced Tea.",
	},
	TopicAllergy: {
		"Please tell us about any allergies in the personalization notes. All our food is halal, and ingredient lists are on each menu item.",
		"We handle nuts, dairy and gluten in our kitchen. Add allergy notes to your cart items and we'll take care.",
	},
	TopicPrice: {
		"Most mains are between RM 8 and RM 25. Ask me for the menu to see every price.",
		"Our prices start from RM 3 for drinks. Type \"menu\" to see everything.",
	},
	TopicJobs: {
		"We're always hiring! Send your CV to careers@quickbite.my.",
		"Interested in joining QuickBite? Email careers@quickbite.my.",
	},
	TopicReviews: {
		"Our customers rate us 4.7 out of 5. We'd love your feedback after your order!",
		"Thanks for asking! You can leave a review from your order history.",
	},
}

var defaultReplies = []string{
	"I'm not sure I got that. Try asking about the menu, delivery or your order.",
	"Hmm, I didn't quite catch that. Type \"help\" to see what I can do.",
	"Sorry, I don't understand yet. You can ask me to show the menu or add items to your cart.",
}

var suggestionsByRole = map[models.Role]map[Intent][]string{
	models.RoleGuest: {
		IntentGreeting:       {"View menu", "Create account", "Opening hours", "Delivery info"},
		IntentOrderRequest:   {"Create account", "Log in", "View menu", "Opening hours"},
		IntentAdminPriceEdit: {"View menu", "Create account", "Help", "Opening hours"},
		IntentHelpRequest:    {"View menu", "Create account", "Delivery info", "Payment options"},
		IntentComplaint:      {"Contact support", "Create account", "View menu", "Help"},
	},
	models.RoleMember: {
		IntentGreeting:       {"View menu", "View cart", "Track my order", "Help"},
		IntentOrderRequest:   {"View cart", "Checkout", "View menu", "Track my order"},
		IntentAdminPriceEdit: {"View menu", "View cart", "Track my order", "Help"},
		IntentHelpRequest:    {"View menu", "Add 1 Classic Burger to my cart", "View cart", "Track my order"},
		IntentComplaint:      {"Track my order", "Contact support", "View menu", "Help"},
	},
	models.RoleAdmin: {
		IntentGreeting:       {"Change a price", "View menu", "Recent orders", "Help"},
		IntentAdminPriceEdit: {"View menu", "Change another price", "Recent orders", "Help"},
		IntentHelpRequest:    {"Change the price of Classic Burger to RM 15.00", "View menu", "Recent orders", "Help"},
	},
}

var defaultSuggestions = map[models.Role][]string{
	models.RoleGuest:  {"View menu", "Create account", "Delivery info", "Opening hours"},
	models.RoleMember: {"View menu", "View cart", "Track my order", "Help"},
	models.RoleAdmin:  {"View menu", "Change a price", "Recent orders", "Help"},
}

// Composer selects canned replies and suggestion lists.
type Composer struct {
	selector Selector
	currency string
}

func NewComposer(selector Selector, currency string) *Composer {
	if selector == nil {
		selector = FirstSelector{}
	}
	if currency == "" {
		currency = "RM"
	}
	return &Composer{selector: selector, currency: currency}
}

// Suggestions returns the fixed list for (role, intent), falling back to the
// role default.
func (c *Composer) Suggestions(role models.Role, intent Intent) []string {
	if byIntent, ok := suggestionsByRole[role]; ok {
		if s, ok := byIntent[intent]; ok {
			return append([]string(nil), s...)
		}
	}
	if s, ok := defaultSuggestions[role]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), defaultSuggestions[models.RoleGuest]...)
}

// Compose answers a small-talk intent. Other intents get the default pool.
func (c *Composer) Compose(role models.Role, intent Intent) Response {
	variants, ok := smallTalkReplies[intent]
	if !ok {
		return c.Default(role)
	}
	return Response{Reply: c.pick(variants), Suggestions: c.Suggestions(role, intent)}
}

// Topic answers a canned topic bucket. Buckets that need data (menu, track,
// cart) are answered by the assistant and fall back to the default here.
func (c *Composer) Topic(role models.Role, topic Topic) Response {
	variants, ok := topicReplies[topic]
	if !ok {
		return c.Default(role)
	}
	return Response{Reply: c.pick(variants), Suggestions: c.Suggestions(role, IntentNone)}
}

func (c *Composer) Default(role models.Role) Response {
	return Response{Reply: c.pick(defaultReplies), Suggestions: c.Suggestions(role, IntentNone)}
}

// GuestOrderPrompt is the account-creation upsell for guests trying to order.
func (c *Composer) GuestOrderPrompt() Response {
	return Response{
		Reply:       "You'll need an account to order. Create an account or log in and I'll add it to your cart straight away!",
		Suggestions: c.Suggestions(models.RoleGuest, IntentOrderRequest),
	}
}

// AccessDenied is the polite refusal for actions above the caller's role.
func (c *Composer) AccessDenied(role models.Role, intent Intent) Response {
	reply := "Sorry, only administrators can change menu prices."
	if role == models.RoleGuest {
		reply = "Sorry, price changes are limited to administrators. Create an account to start ordering instead!"
	}
	return Response{Reply: reply, Suggestions: c.Suggestions(role, intent)}
}

// ParseFailure asks the user to rephrase.
func (c *Composer) ParseFailure(role models.Role, intent Intent) Response {
	reply := "I couldn't tell which item you meant. Try something like \"add 2 Classic Burger to my cart\"."
	if intent == IntentAdminPriceEdit {
		reply = fmt.Sprintf("I couldn't read that price change. Try \"change the price of Classic Burger to %s 15.00\".", c.currency)
	}
	return Response{Reply: reply, Suggestions: c.Suggestions(role, IntentHelpRequest)}
}

func (c *Composer) LookupMiss(role models.Role, names ...string) Response {
	return Response{
		Reply:       fmt.Sprintf("Sorry, I couldn't find %s on our menu.", joinQuoted(names)),
		Suggestions: withBrowseMenu(c.Suggestions(role, IntentNone)),
	}
}

func (c *Composer) SomethingWentWrong(role models.Role) Response {
	return Response{
		Reply:       "Something went wrong on our side, please try again.",
		Suggestions: c.Suggestions(role, IntentNone),
	}
}

// Price formats an amount in the configured currency.
func (c *Composer) Price(amount float64) string {
	return fmt.Sprintf("%s %.2f", c.currency, amount)
}

func (c *Composer) pick(variants []string) string {
	if len(variants) == 0 {
		return ""
	}
	i := c.selector.Pick(len(variants))
	if i < 0 || i >= len(variants) {
		i = 0
	}
	return variants[i]
}

// ReplyVariants lists every reply Compose may return for an intent.
func ReplyVariants(intent Intent) []string {
	if v, ok := smallTalkReplies[intent]; ok {
		return append([]string(nil), v...)
	}
	return append([]string(nil), defaultReplies...)
}

// TopicVariants lists every canned reply for a topic bucket.
func TopicVariants(topic Topic) []string {
	if v, ok := topicReplies[topic]; ok {
		return append([]string(nil), v...)
	}
	return append([]string(nil), defaultReplies...)
}

func withBrowseMenu(s []string) []string {
	for _, v := range s {
		if v == "View menu" {
			return s
		}
	}
	return append([]string{"View menu"}, s[:len(s)-1]...)
}

func joinQuoted(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, "\""+n+"\"")
	}
	switch len(quoted) {
	case 0:
		return "that"
	case 1:
		return quoted[0]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
	}
}
