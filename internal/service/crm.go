package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/domain"
	"github.com/vendebot/vende/internal/repository"
	"github.com/vendebot/vende/internal/storage"
)

// BotService handles chatbot connections
type BotService struct {
	repos *repository.Repositories
}

func (s *BotService) Create(ctx context.Context, bot *domain.Bot) error {
	if bot.Name == "" {
		return errors.New("bot name is required")
	}
	switch bot.Platform {
	case domain.PlatformWhatsApp:
		if bot.PhoneNumberID == nil || *bot.PhoneNumberID == "" {
			return errors.New("phone_number_id is required for whatsapp bots")
		}
	case domain.PlatformInstagram:
		if bot.PageID == nil || *bot.PageID == "" {
			return errors.New("page_id is required for instagram bots")
		}
	default:
		return fmt.Errorf("unsupported platform: %s", bot.Platform)
	}

	// Enforce the plan's bot cap
	account, err := s.repos.Account.GetByID(ctx, bot.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return errors.New("account not found")
	}
	count, err := s.repos.Bot.CountByAccountID(ctx, bot.AccountID)
	if err != nil {
		return fmt.Errorf("failed to count bots: %w", err)
	}
	limits := domain.LimitsFor(account.Plan)
	if count >= limits.MaxBots {
		return fmt.Errorf("plan %s allows at most %d bots", account.Plan, limits.MaxBots)
	}

	bot.IsActive = true
	return s.repos.Bot.Create(ctx, bot)
}

func (s *BotService) Get(ctx context.Context, accountID, id uuid.UUID) (*domain.Bot, error) {
	bot, err := s.repos.Bot.GetByID(ctx, id)
	if err != nil || bot == nil {
		return bot, err
	}
	if bot.AccountID != accountID {
		return nil, nil
	}
	return bot, nil
}

func (s *BotService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Bot, error) {
	return s.repos.Bot.GetByAccountID(ctx, accountID)
}

func (s *BotService) Update(ctx context.Context, accountID uuid.UUID, bot *domain.Bot) error {
	existing, err := s.Get(ctx, accountID, bot.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("bot not found")
	}
	if bot.AccessToken == "" {
		bot.AccessToken = existing.AccessToken
	}
	return s.repos.Bot.Update(ctx, bot)
}

func (s *BotService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("bot not found")
	}
	return s.repos.Bot.Delete(ctx, id)
}

// ClientService handles end-customer records
type ClientService struct {
	repos *repository.Repositories
}

func (s *ClientService) Create(ctx context.Context, c *domain.Client) error {
	if c.Name == "" {
		return errors.New("client name is required")
	}

	account, err := s.repos.Account.GetByID(ctx, c.AccountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return errors.New("account not found")
	}
	count, err := s.repos.Client.CountByAccountID(ctx, c.AccountID)
	if err != nil {
		return fmt.Errorf("failed to count clients: %w", err)
	}
	limits := domain.LimitsFor(account.Plan)
	if count >= limits.MaxClients {
		return fmt.Errorf("plan %s allows at most %d clients", account.Plan, limits.MaxClients)
	}

	return s.repos.Client.Create(ctx, c)
}

func (s *ClientService) Get(ctx context.Context, accountID, id uuid.UUID) (*domain.Client, error) {
	client, err := s.repos.Client.GetByID(ctx, id)
	if err != nil || client == nil {
		return client, err
	}
	if client.AccountID != accountID {
		return nil, nil
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, accountID uuid.UUID, filter domain.ClientFilter) ([]*domain.Client, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repos.Client.GetByAccountID(ctx, accountID, filter)
}

func (s *ClientService) Update(ctx context.Context, accountID uuid.UUID, c *domain.Client) error {
	existing, err := s.Get(ctx, accountID, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("client not found")
	}
	if c.Name == "" {
		return errors.New("client name is required")
	}
	return s.repos.Client.Update(ctx, c)
}

// RecordPurchase adds a purchase to the client's history. Loyalty points
// accrue at 1 point per $10 spent.
func (s *ClientService) RecordPurchase(ctx context.Context, accountID, id uuid.UUID, amount float64) error {
	if amount <= 0 {
		return errors.New("purchase amount must be positive")
	}
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("client not found")
	}
	points := int(amount / 10)
	return s.repos.Client.RecordPurchase(ctx, id, amount, points)
}

func (s *ClientService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("client not found")
	}
	return s.repos.Client.Delete(ctx, id)
}

// BusinessService handles the per-account business profile
type BusinessService struct {
	repos *repository.Repositories
}

func (s *BusinessService) Get(ctx context.Context, accountID uuid.UUID) (*domain.BusinessProfile, error) {
	return s.repos.Business.GetByAccountID(ctx, accountID)
}

func (s *BusinessService) Save(ctx context.Context, b *domain.BusinessProfile) error {
	if b.DisplayName == "" {
		return errors.New("business display name is required")
	}
	return s.repos.Business.Upsert(ctx, b)
}

// ProductService handles catalog items
type ProductService struct {
	repos *repository.Repositories
	store *storage.Storage
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) error {
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.Price < 0 {
		return errors.New("product price cannot be negative")
	}
	p.IsActive = true
	return s.repos.Product.Create(ctx, p)
}

func (s *ProductService) Get(ctx context.Context, accountID, id uuid.UUID) (*domain.Product, error) {
	p, err := s.repos.Product.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if p.AccountID != accountID {
		return nil, nil
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Product, error) {
	return s.repos.Product.GetByAccountID(ctx, accountID)
}

func (s *ProductService) Update(ctx context.Context, accountID uuid.UUID, p *domain.Product) error {
	existing, err := s.Get(ctx, accountID, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("product not found")
	}
	return s.repos.Product.Update(ctx, p)
}

// AttachImage uploads image data and stores the resulting public URL on the
// product.
func (s *ProductService) AttachImage(ctx context.Context, accountID, id uuid.UUID, data []byte, extension, contentType string) (string, error) {
	p, err := s.Get(ctx, accountID, id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", errors.New("product not found")
	}

	filename := storage.GenerateProductImagePath(id, extension)
	url, err := s.store.UploadFile(ctx, accountID, "", filename, data, contentType)
	if err != nil {
		return "", err
	}

	p.ImageURL = &url
	if err := s.repos.Product.Update(ctx, p); err != nil {
		return "", err
	}
	return url, nil
}

func (s *ProductService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("product not found")
	}

	// Best effort: remove the stored image alongside the record
	if existing.ImageURL != nil && s.store != nil {
		if key, err := s.store.ExtractObjectKey(*existing.ImageURL); err == nil {
			_ = s.store.DeleteFile(ctx, key)
		}
	}

	return s.repos.Product.Delete(ctx, id)
}
