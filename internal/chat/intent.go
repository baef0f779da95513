package chat

// Intent is the discrete purpose of a chat message.
type Intent int

const (
	IntentNone Intent = iota
	IntentGreeting
	IntentFarewell
	IntentThanks
	IntentCompliment
	IntentComplaint
	IntentAIQuestion
	IntentJokeRequest
	IntentHelpRequest
	IntentWeatherTimeQuery
	IntentConfusion
	IntentOrderRequest
	IntentAdminPriceEdit
)

var intentNames = map[Intent]string{
	IntentNone:             "None",
	IntentGreeting:         "Greeting",
	IntentFarewell:         "Farewell",
	IntentThanks:           "Thanks",
	IntentCompliment:       "Compliment",
	IntentComplaint:        "Complaint",
	IntentAIQuestion:       "AIQuestion",
	IntentJokeRequest:      "JokeRequest",
	IntentHelpRequest:      "HelpRequest",
	IntentWeatherTimeQuery: "WeatherTimeQuery",
	IntentConfusion:        "Confusion",
	IntentOrderRequest:     "OrderRequest",
	IntentAdminPriceEdit:   "AdminPriceEdit",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return "Unknown"
}

// IsSmallTalk reports whether i is one of the conversational categories.
func (i Intent) IsSmallTalk() bool {
	return i >= IntentGreeting && i <= IntentConfusion
}

// Topic is the keyword bucket used to answer messages with no intent.
type Topic int

const (
	TopicNone Topic = iota
	TopicMenu
	TopicDelivery
	TopicPayment
	TopicTrack
	TopicCart
	TopicHours
	TopicLocation
	TopicNutrition
	TopicAllergy
	TopicPrice
	TopicJobs
	TopicReviews
)

var topicNames = map[Topic]string{
	TopicNone:      "none",
	TopicMenu:      "menu",
	TopicDelivery:  "delivery",
	TopicPayment:   "payment",
	TopicTrack:     "track",
	TopicCart:      "cart",
	TopicHours:     "hours",
	TopicLocation:  "location",
	TopicNutrition: "nutrition",
	TopicAllergy:   "allergy",
	TopicPrice:     "price",
	TopicJobs:      "jobs",
	TopicReviews:   "reviews",
}

func (t Topic) String() string {
	if name, ok := topicNames[t]; ok {
		return name
	}
	return "unknown"
}
