package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/domain"
	"github.com/vendebot/vende/internal/meta"
	"github.com/vendebot/vende/internal/repository"
	"github.com/vendebot/vende/internal/resolver"
	"github.com/vendebot/vende/internal/ws"
)

// BillingService enforces plan quotas over the current subscription period
type BillingService struct {
	repos *repository.Repositories
}

// Usage reports the state of the current billing period.
type Usage struct {
	Plan         string    `json:"plan"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	MessagesUsed int       `json:"messages_used"`
	MessageLimit int       `json:"message_limit"`
}

// ensurePeriod returns the account's subscription, creating it on first use
// and rolling the period forward when it has lapsed.
func (s *BillingService) ensurePeriod(ctx context.Context, accountID uuid.UUID) (*domain.Subscription, error) {
	account, err := s.repos.Account.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, errors.New("account not found")
	}

	sub, err := s.repos.Subscription.GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	now := time.Now()
	if sub == nil {
		sub = &domain.Subscription{
			AccountID:          accountID,
			Plan:               account.Plan,
			Status:             domain.SubscriptionStatusActive,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		}
		if err := s.repos.Subscription.Upsert(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
		return sub, nil
	}

	if now.After(sub.CurrentPeriodEnd) {
		start := sub.CurrentPeriodEnd
		end := start.AddDate(0, 1, 0)
		for now.After(end) {
			start = end
			end = start.AddDate(0, 1, 0)
		}
		if err := s.repos.Subscription.ResetPeriod(ctx, accountID, start, end); err != nil {
			return nil, fmt.Errorf("failed to roll billing period: %w", err)
		}
		sub.CurrentPeriodStart = start
		sub.CurrentPeriodEnd = end
		sub.MessagesUsed = 0
	}

	return sub, nil
}

// CheckQuota fails when the account has exhausted its monthly message
// allowance or its subscription is not active.
func (s *BillingService) CheckQuota(ctx context.Context, accountID uuid.UUID) error {
	sub, err := s.ensurePeriod(ctx, accountID)
	if err != nil {
		return err
	}
	if sub.Status != domain.SubscriptionStatusActive {
		return fmt.Errorf("subscription is %s", sub.Status)
	}

	limits := domain.LimitsFor(sub.Plan)
	if sub.MessagesUsed >= limits.MonthlyMessages {
		return fmt.Errorf("monthly message limit of %d reached for plan %s", limits.MonthlyMessages, sub.Plan)
	}
	return nil
}

// RecordMessage counts one sent message against the current period.
func (s *BillingService) RecordMessage(ctx context.Context, accountID uuid.UUID) error {
	return s.repos.Subscription.IncrementUsage(ctx, accountID)
}

// GetUsage returns current-period usage for the dashboard.
func (s *BillingService) GetUsage(ctx context.Context, accountID uuid.UUID) (*Usage, error) {
	sub, err := s.ensurePeriod(ctx, accountID)
	if err != nil {
		return nil, err
	}
	limits := domain.LimitsFor(sub.Plan)
	return &Usage{
		Plan:         sub.Plan,
		PeriodStart:  sub.CurrentPeriodStart,
		PeriodEnd:    sub.CurrentPeriodEnd,
		MessagesUsed: sub.MessagesUsed,
		MessageLimit: limits.MonthlyMessages,
	}, nil
}

// ChangePlan switches the account to a new plan and syncs the subscription.
func (s *BillingService) ChangePlan(ctx context.Context, accountID uuid.UUID, plan string) error {
	switch plan {
	case domain.PlanFree, domain.PlanStarter, domain.PlanPro:
	default:
		return fmt.Errorf("unknown plan: %s", plan)
	}

	if err := s.repos.Account.UpdatePlan(ctx, accountID, plan); err != nil {
		return fmt.Errorf("failed to update account plan: %w", err)
	}

	sub, err := s.ensurePeriod(ctx, accountID)
	if err != nil {
		return err
	}
	sub.Plan = plan
	return s.repos.Subscription.Upsert(ctx, sub)
}

// PreviewService resolves templates against the synthetic preview client or a
// real one, without sending anything.
type PreviewService struct {
	engine *resolver.Engine
}

// PreviewResult is the outcome of a dry-run resolution.
type PreviewResult struct {
	Resolved   string   `json:"resolved"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// Preview resolves a template body. An empty clientRef uses the synthetic
// preview client so operators can try templates before any real client
// exists.
func (s *PreviewService) Preview(ctx context.Context, accountID uuid.UUID, template, clientRef string, promotionID, orderID *uuid.UUID) (*PreviewResult, error) {
	ref := resolver.PreviewClient()
	if clientRef != "" {
		parsed, err := resolver.ParseClientRef(clientRef)
		if err != nil {
			return nil, fmt.Errorf("invalid client reference: %w", err)
		}
		ref = parsed
	}

	resolved := s.engine.Resolve(ctx, template, resolver.Context{
		AccountID:   accountID,
		Client:      ref,
		PromotionID: promotionID,
		OrderID:     orderID,
	})

	return &PreviewResult{
		Resolved:   resolved,
		Unresolved: resolver.Unresolved(resolved),
	}, nil
}

// AutomationService resolves templates and relays them to Meta, logging every
// attempt.
type AutomationService struct {
	repos   *repository.Repositories
	engine  *resolver.Engine
	graph   *meta.Client
	hub     *ws.Hub
	billing *BillingService
}

// SendRequest names what to send and to whom.
type SendRequest struct {
	BotID       uuid.UUID
	ClientID    uuid.UUID
	Template    string
	PromotionID *uuid.UUID
	OrderID     *uuid.UUID
}

// SendTemplate resolves the template for the given client and relays it
// through the bot's platform. The attempt is logged whether or not the relay
// succeeds.
func (s *AutomationService) SendTemplate(ctx context.Context, accountID uuid.UUID, req SendRequest) (*domain.MessageLog, error) {
	if req.Template == "" {
		return nil, errors.New("template body is required")
	}

	bot, err := s.repos.Bot.GetByID(ctx, req.BotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}
	if bot == nil || bot.AccountID != accountID {
		return nil, errors.New("bot not found")
	}
	if !bot.IsActive {
		return nil, errors.New("bot is not active")
	}

	client, err := s.repos.Client.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client == nil || client.AccountID != accountID {
		return nil, errors.New("client not found")
	}

	if err := s.billing.CheckQuota(ctx, accountID); err != nil {
		return nil, err
	}

	body := s.engine.Resolve(ctx, req.Template, resolver.Context{
		AccountID:   accountID,
		Client:      resolver.RealClient(client.ID),
		PromotionID: req.PromotionID,
		OrderID:     req.OrderID,
		Platform:    resolver.Platform(bot.Platform),
	})

	return s.relay(ctx, bot, client, body)
}

// relay performs the platform send and writes the message log.
func (s *AutomationService) relay(ctx context.Context, bot *domain.Bot, client *domain.Client, body string) (*domain.MessageLog, error) {
	var recipient string
	var sendErr error

	switch bot.Platform {
	case domain.PlatformWhatsApp:
		if client.Phone == nil || *client.Phone == "" {
			return nil, errors.New("client has no phone number")
		}
		recipient = *client.Phone
		_, sendErr = s.graph.SendWhatsApp(ctx, derefStr(bot.PhoneNumberID), bot.AccessToken, recipient, body)
	case domain.PlatformInstagram:
		if client.InstagramHandle == nil || *client.InstagramHandle == "" {
			return nil, errors.New("client has no instagram handle")
		}
		recipient = *client.InstagramHandle
		_, sendErr = s.graph.SendInstagram(ctx, derefStr(bot.PageID), bot.AccessToken, recipient, body)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", bot.Platform)
	}

	entry := &domain.MessageLog{
		AccountID: bot.AccountID,
		BotID:     &bot.ID,
		ClientID:  &client.ID,
		Platform:  bot.Platform,
		Recipient: recipient,
		Body:      body,
		Status:    domain.MessageStatusSent,
	}
	if sendErr != nil {
		entry.Status = domain.MessageStatusFailed
		errText := sendErr.Error()
		entry.Error = &errText
	}

	if err := s.repos.MessageLog.Create(ctx, entry); err != nil {
		log.Printf("[Automation] Failed to write message log: %v", err)
	}

	if sendErr != nil {
		if s.hub != nil {
			s.hub.BroadcastToAccount(bot.AccountID, ws.EventMessageFailed, entry)
		}
		return entry, fmt.Errorf("relay failed: %w", sendErr)
	}

	if err := s.billing.RecordMessage(ctx, bot.AccountID); err != nil {
		log.Printf("[Automation] Failed to record usage for account %s: %v", bot.AccountID, err)
	}
	if s.hub != nil {
		s.hub.BroadcastMessageSent(bot.AccountID, entry)
	}
	return entry, nil
}

// HandleInbound processes one webhook message: it finds or creates the
// client, notifies connected dashboards, and answers with the bot's welcome
// or away template.
func (s *AutomationService) HandleInbound(ctx context.Context, msg meta.InboundMessage) error {
	var bot *domain.Bot
	var err error
	switch msg.Platform {
	case domain.PlatformWhatsApp:
		bot, err = s.repos.Bot.GetByPhoneNumberID(ctx, msg.BotKey)
	case domain.PlatformInstagram:
		bot, err = s.repos.Bot.GetByPageID(ctx, msg.BotKey)
	default:
		return fmt.Errorf("unsupported platform: %s", msg.Platform)
	}
	if err != nil {
		return fmt.Errorf("failed to look up bot: %w", err)
	}
	if bot == nil {
		log.Printf("[Automation] Webhook for unknown bot key %s (%s), ignoring", msg.BotKey, msg.Platform)
		return nil
	}
	if !bot.IsActive {
		return nil
	}

	if err := s.repos.Bot.TouchWebhook(ctx, bot.ID); err != nil {
		log.Printf("[Automation] Failed to touch webhook timestamp: %v", err)
	}

	client, isNew, err := s.findOrCreateClient(ctx, bot, msg)
	if err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastToAccount(bot.AccountID, ws.EventInboundMessage, map[string]interface{}{
			"bot_id":    bot.ID.String(),
			"client_id": client.ID.String(),
			"platform":  msg.Platform,
			"text":      msg.Text,
		})
	}

	// First contact gets the welcome template, repeat contact the away one
	template := bot.AwayTemplate
	if isNew {
		template = bot.WelcomeTemplate
	}
	if template == nil || *template == "" {
		return nil
	}

	if err := s.billing.CheckQuota(ctx, bot.AccountID); err != nil {
		log.Printf("[Automation] Auto-reply suppressed for account %s: %v", bot.AccountID, err)
		return nil
	}

	body := s.engine.Resolve(ctx, *template, resolver.Context{
		AccountID: bot.AccountID,
		Client:    resolver.RealClient(client.ID),
		Platform:  resolver.Platform(bot.Platform),
	})

	_, err = s.relay(ctx, bot, client, body)
	return err
}

// findOrCreateClient matches the sender to an existing client record or
// registers a new one.
func (s *AutomationService) findOrCreateClient(ctx context.Context, bot *domain.Bot, msg meta.InboundMessage) (*domain.Client, bool, error) {
	var client *domain.Client
	var err error
	switch msg.Platform {
	case domain.PlatformWhatsApp:
		client, err = s.repos.Client.GetByPhone(ctx, bot.AccountID, msg.SenderID)
	case domain.PlatformInstagram:
		client, err = s.repos.Client.GetByInstagramHandle(ctx, bot.AccountID, msg.SenderID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up client: %w", err)
	}
	if client != nil {
		return client, false, nil
	}

	name := msg.SenderName
	if name == "" {
		if profileName, err := s.graph.GetProfileName(ctx, msg.SenderID, bot.AccessToken, msg.Platform); err == nil && profileName != "" {
			name = profileName
		}
	}
	if name == "" {
		name = msg.SenderID
	}

	client = &domain.Client{
		AccountID: bot.AccountID,
		Name:      name,
	}
	switch msg.Platform {
	case domain.PlatformWhatsApp:
		phone := msg.SenderID
		client.Phone = &phone
	case domain.PlatformInstagram:
		handle := msg.SenderID
		client.InstagramHandle = &handle
	}

	if err := s.repos.Client.Create(ctx, client); err != nil {
		return nil, false, fmt.Errorf("failed to create client: %w", err)
	}
	log.Printf("[Automation] Registered new client %s for account %s", client.ID, bot.AccountID)
	return client, true, nil
}

// MessageHistory lists recent outbound message logs.
func (s *AutomationService) MessageHistory(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.MessageLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repos.MessageLog.GetByAccountID(ctx, accountID, limit, offset)
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
