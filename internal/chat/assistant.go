package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/common/metrics"
	"quickbite/internal/models"
)

// ChatMessage is one inbound message. SessionID scopes the cart and
// defaults to UserIdentifier.
type ChatMessage struct {
	Role           models.Role `json:"role"`
	UserIdentifier string      `json:"userIdentifier"`
	SessionID      string      `json:"sessionId,omitempty"`
	Text           string      `json:"text"`
}

type Config struct {
	Currency         string
	RecentOrderLimit int
	VisionMatchLimit int
	MaxMessageLength int
	Selector         Selector
}

// Dependencies are the collaborators the assistant calls. Vision, Pending
// and Observers are optional.
type Dependencies struct {
	Catalog   MenuCatalog
	Orders    OrderHistory
	Carts     CartProvider
	Prices    PriceUpdater
	Vision    VisionClient
	Pending   PendingEdits
	Observers []PriceObserver
}

// Assistant answers chat turns. Every public operation emits at least one
// reply on the outbound channel and never returns an error.
type Assistant struct {
	config     *Config
	deps       Dependencies
	classifier *Classifier
	composer   *Composer
	logger     logger.Logger
	tracer     trace.Tracer
}

const (
	opHandleMessage    = "handle-message"
	opHandleImage      = "handle-image-upload"
	opConfirmPriceEdit = "confirm-price-edit"
)

var (
	orderIDPattern = regexp.MustCompile(`(?i)(?:#\s*|\border\s*(?:no\.?|number|id)?\s*#?\s*)(\d+)\b`)
	removePattern  = regexp.MustCompile(`(?i)\b(?:remove|delete|take out|take off)\s+(?:the\s+|my\s+)?(.+?)(?:\s+(?:from|off|out of)\s+(?:my\s+|the\s+)?(?:cart|basket))?\s*[.!?]*$`)
	clearCart      = phrases("clear my cart", "clear the cart", "clear cart", "empty my cart", "empty the cart",
		"empty cart", "remove everything", "delete everything", "start over")
)

func NewAssistant(config *Config, deps Dependencies, log logger.Logger) *Assistant {
	if config.RecentOrderLimit <= 0 {
		config.RecentOrderLimit = 5
	}
	if config.VisionMatchLimit <= 0 {
		config.VisionMatchLimit = 3
	}
	return &Assistant{
		config:     config,
		deps:       deps,
		classifier: NewClassifier(),
		composer:   NewComposer(config.Selector, config.Currency),
		logger: log.With(map[string]interface{}{
			"component": "chat-assistant",
		}),
		tracer: otel.Tracer("quickbite/internal/chat"),
	}
}

// Classifier exposes the assistant's classifier.
func (a *Assistant) Classifier() *Classifier {
	return a.classifier
}

// ==========================
// Public operations
// ==========================

// HandleMessage classifies one message and answers it.
func (a *Assistant) HandleMessage(ctx context.Context, msg ChatMessage, out Outbound) {
	ctx, span := a.tracer.Start(ctx, "chat.HandleMessage",
		trace.WithAttributes(attribute.String("chat.role", string(msg.Role))))
	defer span.End()
	defer a.observe(opHandleMessage, time.Now())
	defer a.recoverTurn(span, msg.Role, opHandleMessage, out)

	if msg.SessionID == "" {
		msg.SessionID = msg.UserIdentifier
	}
	msg.Text = a.truncate(msg.Text)

	intent := a.classifier.Classify(msg.Text)
	span.SetAttributes(attribute.String("chat.intent", intent.String()))
	metrics.ChatMessages.WithLabelValues(string(msg.Role), intent.String()).Inc()

	a.logger.Debug("message classified", map[string]interface{}{
		"role":   string(msg.Role),
		"user":   msg.UserIdentifier,
		"intent": intent.String(),
	})

	if err := a.dispatch(ctx, msg, intent, out); err != nil {
		a.fail(span, msg.Role, opHandleMessage, err, out)
	}
}

// HandleImageUpload tags an uploaded image through the vision service and
// suggests menu items whose name or description mentions a tag.
func (a *Assistant) HandleImageUpload(ctx context.Context, role models.Role, userIdentifier, imageRef string, out Outbound) {
	ctx, span := a.tracer.Start(ctx, "chat.HandleImageUpload",
		trace.WithAttributes(attribute.String("chat.role", string(role))))
	defer span.End()
	defer a.observe(opHandleImage, time.Now())
	defer a.recoverTurn(span, role, opHandleImage, out)

	if err := a.handleImage(ctx, role, userIdentifier, imageRef, out); err != nil {
		a.fail(span, role, opHandleImage, err, out)
	}
}

// ConfirmPriceEdit commits a price change proposed earlier in the
// conversation.
func (a *Assistant) ConfirmPriceEdit(ctx context.Context, role models.Role, userIdentifier, itemName string, newPrice float64, out Outbound) {
	ctx, span := a.tracer.Start(ctx, "chat.ConfirmPriceEdit",
		trace.WithAttributes(
			attribute.String("chat.role", string(role)),
			attribute.String("menu.item", itemName),
			attribute.Float64("menu.new_price", newPrice),
		))
	defer span.End()
	defer a.observe(opConfirmPriceEdit, time.Now())
	defer a.recoverTurn(span, role, opConfirmPriceEdit, out)

	if err := a.confirmPriceEdit(ctx, role, userIdentifier, PriceEditRequest{ItemName: itemName, NewPrice: newPrice}, out); err != nil {
		a.fail(span, role, opConfirmPriceEdit, err, out)
	}
}

// ==========================
// Message routing
// ==========================

func (a *Assistant) dispatch(ctx context.Context, msg ChatMessage, intent Intent, out Outbound) error {
	switch {
	case intent.IsSmallTalk():
		a.respond(out, a.composer.Compose(msg.Role, intent))
		return nil

	case intent == IntentAdminPriceEdit:
		if msg.Role != models.RoleAdmin {
			metrics.PriceEdits.WithLabelValues("propose", "denied").Inc()
			a.respond(out, a.composer.AccessDenied(msg.Role, intent))
			return nil
		}
		return a.proposePriceEdit(ctx, msg, out)

	case intent == IntentOrderRequest:
		switch msg.Role {
		case models.RoleGuest:
			a.respond(out, a.composer.GuestOrderPrompt())
			return nil
		case models.RoleMember:
			return a.addToCart(ctx, msg, out)
		}
		// Admins have no ordering flow and get the generic answer.
		return a.answerTopic(ctx, msg, out)

	default:
		return a.answerTopic(ctx, msg, out)
	}
}

func (a *Assistant) addToCart(ctx context.Context, msg ChatMessage, out Outbound) error {
	items := ExtractOrderItems(msg.Text)
	if len(items) == 0 {
		a.respond(out, a.composer.ParseFailure(msg.Role, IntentOrderRequest))
		return nil
	}

	cart := a.deps.Carts.ForSession(msg.SessionID)
	var added []string
	var missing []string
	for _, extracted := range items {
		item, err := Resolve(ctx, a.deps.Catalog, extracted.Name)
		if errors.Is(err, models.ErrMenuItemNotFound) {
			missing = append(missing, extracted.Name)
			continue
		}
		if err != nil {
			return apperrors.NewPersistenceFailureError("resolve menu item", err)
		}
		if err := cart.AddToCart(ctx, *item, extracted.Quantity, extracted.Personalization); err != nil {
			return apperrors.NewPersistenceFailureError("add to cart", err)
		}

		line := fmt.Sprintf("%d x %s (%s each)", extracted.Quantity, item.Name, a.composer.Price(item.Price))
		if extracted.Personalization != "" {
			line += ", " + extracted.Personalization
		}
		added = append(added, line)
	}

	if len(added) == 0 {
		a.respond(out, a.composer.LookupMiss(msg.Role, missing...))
		return nil
	}

	var b strings.Builder
	b.WriteString("Added to your cart:")
	for _, line := range added {
		b.WriteString("\n- " + line)
	}
	if len(missing) > 0 {
		b.WriteString("\n" + a.composer.LookupMiss(msg.Role, missing...).Reply)
	}
	if lines, err := cart.Lines(ctx); err == nil {
		b.WriteString(fmt.Sprintf("\nCart total: %s", a.composer.Price(models.CartTotal(lines))))
	} else {
		a.logger.Warn("cart total unavailable", map[string]interface{}{"error": err.Error()})
	}

	a.respond(out, Response{Reply: b.String(), Suggestions: a.composer.Suggestions(msg.Role, IntentOrderRequest)})
	return nil
}

func (a *Assistant) proposePriceEdit(ctx context.Context, msg ChatMessage, out Outbound) error {
	req, ok := ExtractPriceEdit(msg.Text)
	if !ok {
		metrics.PriceEdits.WithLabelValues("propose", "unparsed").Inc()
		a.respond(out, a.composer.ParseFailure(msg.Role, IntentAdminPriceEdit))
		return nil
	}

	item, err := Resolve(ctx, a.deps.Catalog, req.ItemName)
	if errors.Is(err, models.ErrMenuItemNotFound) {
		metrics.PriceEdits.WithLabelValues("propose", "not_found").Inc()
		a.respond(out, a.composer.LookupMiss(msg.Role, req.ItemName))
		return nil
	}
	if err != nil {
		return apperrors.NewPersistenceFailureError("resolve menu item", err)
	}

	edit := PriceEditRequest{ItemName: item.Name, NewPrice: float64(models.Cents(req.NewPrice)) / 100}
	if a.deps.Pending != nil {
		if err := a.deps.Pending.Propose(ctx, msg.UserIdentifier, edit); err != nil {
			return apperrors.NewPersistenceFailureError("store pending price edit", err)
		}
	}
	metrics.PriceEdits.WithLabelValues("propose", "ok").Inc()

	summary := fmt.Sprintf("change the price of %s from %s to %s", item.Name,
		a.composer.Price(item.Price), a.composer.Price(edit.NewPrice))
	out.SendReply("Please confirm: " + summary + ".")
	out.SendConfirmationRequest(strings.ToUpper(summary[:1])+summary[1:]+"?", ConfirmationPayload{
		Action:       ActionConfirmPriceEdit,
		ItemName:     edit.ItemName,
		NewPrice:     edit.NewPrice,
		CurrentPrice: item.Price,
	})
	out.SendSuggestions(a.composer.Suggestions(msg.Role, IntentAdminPriceEdit))
	return nil
}

func (a *Assistant) confirmPriceEdit(ctx context.Context, role models.Role, userIdentifier string, edit PriceEditRequest, out Outbound) error {
	if role != models.RoleAdmin {
		metrics.PriceEdits.WithLabelValues("commit", "denied").Inc()
		a.respond(out, a.composer.AccessDenied(role, IntentAdminPriceEdit))
		return nil
	}
	if !edit.Valid() {
		metrics.PriceEdits.WithLabelValues("commit", "invalid").Inc()
		a.respond(out, a.composer.ParseFailure(role, IntentAdminPriceEdit))
		return nil
	}

	if a.deps.Pending != nil {
		pending, err := a.deps.Pending.Take(ctx, userIdentifier)
		if err != nil {
			return apperrors.NewPersistenceFailureError("load pending price edit", err)
		}
		if pending == nil || !strings.EqualFold(pending.ItemName, edit.ItemName) || !models.SamePrice(pending.NewPrice, edit.NewPrice) {
			metrics.PriceEdits.WithLabelValues("commit", "mismatch").Inc()
			a.respond(out, Response{
				Reply:       "That doesn't match a price change I proposed. Please send the price command again.",
				Suggestions: a.composer.Suggestions(role, IntentAdminPriceEdit),
			})
			return nil
		}
	}

	err := a.deps.Prices.UpdateMenuItemPrice(ctx, edit.ItemName, edit.NewPrice)
	if errors.Is(err, models.ErrMenuItemNotFound) {
		metrics.PriceEdits.WithLabelValues("commit", "not_found").Inc()
		a.respond(out, a.composer.LookupMiss(role, edit.ItemName))
		return nil
	}
	if err != nil {
		return apperrors.NewPersistenceFailureError("update menu item price", err)
	}
	metrics.PriceEdits.WithLabelValues("commit", "ok").Inc()

	a.logger.Info("menu price updated", map[string]interface{}{
		"admin":    userIdentifier,
		"item":     edit.ItemName,
		"newPrice": edit.NewPrice,
	})
	for _, o := range a.deps.Observers {
		o.PriceChanged(ctx, edit.ItemName, edit.NewPrice)
	}

	a.respond(out, Response{
		Reply:       fmt.Sprintf("Done! %s now costs %s.", edit.ItemName, a.composer.Price(edit.NewPrice)),
		Suggestions: a.composer.Suggestions(role, IntentAdminPriceEdit),
	})
	return nil
}

// ==========================
// Topic answers
// ==========================

func (a *Assistant) answerTopic(ctx context.Context, msg ChatMessage, out Outbound) error {
	topic := a.classifier.Topic(msg.Text)
	switch topic {
	case TopicMenu:
		return a.showMenu(ctx, msg.Role, out)
	case TopicTrack:
		return a.trackOrders(ctx, msg, out)
	case TopicCart:
		return a.manageCart(ctx, msg, out)
	case TopicPrice:
		return a.quotePrice(ctx, msg, out)
	case TopicNone:
		a.respond(out, a.composer.Default(msg.Role))
		return nil
	default:
		a.respond(out, a.composer.Topic(msg.Role, topic))
		return nil
	}
}

func (a *Assistant) showMenu(ctx context.Context, role models.Role, out Outbound) error {
	items, err := a.deps.Catalog.ListMenuItems(ctx)
	if err != nil {
		return apperrors.NewPersistenceFailureError("list menu items", err)
	}
	if len(items) == 0 {
		a.respond(out, Response{Reply: "Our menu is being updated. Please check back soon!", Suggestions: a.composer.Suggestions(role, IntentNone)})
		return nil
	}

	var b strings.Builder
	b.WriteString("Here's our menu:")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("\n- %s: %s", item.Name, a.composer.Price(item.Price)))
	}
	a.respond(out, Response{Reply: b.String(), Suggestions: a.composer.Suggestions(role, IntentNone)})
	return nil
}

func (a *Assistant) quotePrice(ctx context.Context, msg ChatMessage, out Outbound) error {
	items, err := a.deps.Catalog.ListMenuItems(ctx)
	if err != nil {
		return apperrors.NewPersistenceFailureError("list menu items", err)
	}
	lower := strings.ToLower(msg.Text)
	for _, item := range items {
		if strings.Contains(lower, strings.ToLower(item.Name)) {
			a.respond(out, Response{
				Reply:       fmt.Sprintf("%s costs %s.", item.Name, a.composer.Price(item.Price)),
				Suggestions: a.composer.Suggestions(msg.Role, IntentNone),
			})
			return nil
		}
	}
	a.respond(out, a.composer.Topic(msg.Role, TopicPrice))
	return nil
}

func (a *Assistant) trackOrders(ctx context.Context, msg ChatMessage, out Outbound) error {
	if !msg.Role.IsAuthenticated() {
		a.respond(out, Response{
			Reply:       "Please log in to track your orders.",
			Suggestions: a.composer.Suggestions(msg.Role, IntentNone),
		})
		return nil
	}

	if m := orderIDPattern.FindStringSubmatch(msg.Text); m != nil {
		miss := Response{
			Reply:       fmt.Sprintf("I couldn't find order #%s.", m[1]),
			Suggestions: a.composer.Suggestions(msg.Role, IntentNone),
		}
		// Numbers past int64 cannot name a stored order.
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			a.respond(out, miss)
			return nil
		}
		order, err := a.deps.Orders.FindOrderByID(ctx, id)
		if errors.Is(err, models.ErrOrderNotFound) || (err == nil && msg.Role != models.RoleAdmin && order.UserIdentifier != msg.UserIdentifier) {
			a.respond(out, miss)
			return nil
		}
		if err != nil {
			return apperrors.NewPersistenceFailureError("find order", err)
		}
		a.respond(out, Response{
			Reply:       fmt.Sprintf("Order #%d is %s. Total: %s.", order.ID, order.Status.Label(), a.composer.Price(order.Total)),
			Suggestions: a.composer.Suggestions(msg.Role, IntentNone),
		})
		return nil
	}

	orders, err := a.deps.Orders.FindRecentOrders(ctx, msg.UserIdentifier, a.config.RecentOrderLimit)
	if err != nil {
		return apperrors.NewPersistenceFailureError("find recent orders", err)
	}
	if len(orders) == 0 {
		a.respond(out, Response{
			Reply:       "You haven't placed any orders yet.",
			Suggestions: a.composer.Suggestions(msg.Role, IntentNone),
		})
		return nil
	}

	var b strings.Builder
	b.WriteString("Your recent orders:")
	for _, o := range orders {
		b.WriteString(fmt.Sprintf("\n- #%d (%s): %s, %s", o.ID, o.CreatedAt.Format("02 Jan 15:04"), o.Status.Label(), a.composer.Price(o.Total)))
	}
	a.respond(out, Response{Reply: b.String(), Suggestions: a.composer.Suggestions(msg.Role, IntentNone)})
	return nil
}

func (a *Assistant) manageCart(ctx context.Context, msg ChatMessage, out Outbound) error {
	if msg.Role == models.RoleGuest {
		a.respond(out, a.composer.GuestOrderPrompt())
		return nil
	}
	cart := a.deps.Carts.ForSession(msg.SessionID)

	if clearCart.MatchString(msg.Text) {
		if err := cart.ClearCart(ctx); err != nil {
			return apperrors.NewPersistenceFailureError("clear cart", err)
		}
		a.respond(out, Response{Reply: "Your cart is now empty.", Suggestions: a.composer.Suggestions(msg.Role, IntentNone)})
		return nil
	}

	if m := removePattern.FindStringSubmatch(msg.Text); m != nil {
		name := cleanName(m[1])
		item, err := Resolve(ctx, a.deps.Catalog, name)
		if errors.Is(err, models.ErrMenuItemNotFound) {
			a.respond(out, a.composer.LookupMiss(msg.Role, name))
			return nil
		}
		if err != nil {
			return apperrors.NewPersistenceFailureError("resolve menu item", err)
		}
		if err := cart.RemoveFromCart(ctx, *item); err != nil {
			return apperrors.NewPersistenceFailureError("remove from cart", err)
		}
		a.respond(out, Response{
			Reply:       fmt.Sprintf("Removed %s from your cart.", item.Name),
			Suggestions: a.composer.Suggestions(msg.Role, IntentOrderRequest),
		})
		return nil
	}

	lines, err := cart.Lines(ctx)
	if err != nil {
		return apperrors.NewPersistenceFailureError("read cart", err)
	}
	if len(lines) == 0 {
		a.respond(out, Response{Reply: "Your cart is empty.", Suggestions: a.composer.Suggestions(msg.Role, IntentNone)})
		return nil
	}

	var b strings.Builder
	b.WriteString("Your cart:")
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("\n- %d x %s: %s", l.Quantity, l.Name, a.composer.Price(l.LineTotal())))
		if l.Personalization != "" {
			b.WriteString(" (" + l.Personalization + ")")
		}
	}
	b.WriteString(fmt.Sprintf("\nTotal: %s", a.composer.Price(models.CartTotal(lines))))
	a.respond(out, Response{Reply: b.String(), Suggestions: a.composer.Suggestions(msg.Role, IntentOrderRequest)})
	return nil
}

// ==========================
// Images
// ==========================

func (a *Assistant) handleImage(ctx context.Context, role models.Role, userIdentifier, imageRef string, out Outbound) error {
	if a.deps.Vision == nil || strings.TrimSpace(imageRef) == "" {
		a.respond(out, Response{
			Reply:       "I can't look at images right now, but I can show you the menu.",
			Suggestions: a.composer.Suggestions(role, IntentNone),
		})
		return nil
	}

	tags, err := a.deps.Vision.Tags(ctx, imageRef)
	if err != nil {
		a.logger.Warn("vision lookup failed", map[string]interface{}{
			"user":      userIdentifier,
			"error":     err.Error(),
			"errorCode": string(apperrors.CodeOf(err)),
		})
		a.respond(out, Response{
			Reply:       "I couldn't analyse that image. Please try again or browse the menu.",
			Suggestions: withBrowseMenu(a.composer.Suggestions(role, IntentNone)),
		})
		return nil
	}

	items, err := a.deps.Catalog.ListMenuItems(ctx)
	if err != nil {
		return apperrors.NewPersistenceFailureError("list menu items", err)
	}
	matches := MatchTags(items, tags, a.config.VisionMatchLimit)
	if len(matches) == 0 {
		a.respond(out, Response{
			Reply:       "I couldn't match that photo to anything on our menu.",
			Suggestions: withBrowseMenu(a.composer.Suggestions(role, IntentNone)),
		})
		return nil
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", m.Name, a.composer.Price(m.Price)))
	}
	a.respond(out, Response{
		Reply:       "That looks like it could be: " + strings.Join(names, ", ") + ".",
		Suggestions: a.imageSuggestions(role, matches),
	})
	return nil
}

func (a *Assistant) imageSuggestions(role models.Role, matches []models.MenuItem) []string {
	if role != models.RoleMember {
		return a.composer.Suggestions(role, IntentNone)
	}
	suggestions := make([]string, 0, 4)
	for _, m := range matches {
		if len(suggestions) == 3 {
			break
		}
		suggestions = append(suggestions, "Add 1 "+m.Name+" to my cart")
	}
	return append(suggestions, "View menu")
}

// ==========================
// Plumbing
// ==========================

func (a *Assistant) respond(out Outbound, r Response) {
	out.SendReply(r.Reply)
	if len(r.Suggestions) > 0 {
		out.SendSuggestions(r.Suggestions)
	}
}

func (a *Assistant) fail(span trace.Span, role models.Role, op string, err error, out Outbound) {
	stdErr := apperrors.AsStandardError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stdErr.Code))
	metrics.ChatErrors.WithLabelValues(op, string(stdErr.Code)).Inc()

	a.logger.Error("chat operation failed", map[string]interface{}{
		"operation":     op,
		"errorCode":     string(stdErr.Code),
		"errorCategory": apperrors.GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
	})
	a.respond(out, a.composer.SomethingWentWrong(role))
}

func (a *Assistant) recoverTurn(span trace.Span, role models.Role, op string, out Outbound) {
	if r := recover(); r != nil {
		a.fail(span, role, op, fmt.Errorf("panic: %v", r), out)
	}
}

func (a *Assistant) observe(op string, start time.Time) {
	metrics.ChatTurnDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (a *Assistant) truncate(text string) string {
	limit := a.config.MaxMessageLength
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
