package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/domain"
	"github.com/vendebot/vende/internal/repository"
	"github.com/vendebot/vende/internal/storage"
	"github.com/vendebot/vende/internal/ws"
)

// OrderService handles customer orders
type OrderService struct {
	repos *repository.Repositories
	hub   *ws.Hub
}

var validOrderStatuses = map[string]bool{
	domain.OrderStatusPending:   true,
	domain.OrderStatusConfirmed: true,
	domain.OrderStatusPreparing: true,
	domain.OrderStatusShipped:   true,
	domain.OrderStatusDelivered: true,
	domain.OrderStatusCancelled: true,
}

func (s *OrderService) Create(ctx context.Context, o *domain.Order) error {
	if o.Total < 0 {
		return errors.New("order total cannot be negative")
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	if !validOrderStatuses[o.Status] {
		return fmt.Errorf("invalid order status: %s", o.Status)
	}

	number, err := s.repos.Order.NextOrderNumber(ctx, o.AccountID)
	if err != nil {
		return fmt.Errorf("failed to assign order number: %w", err)
	}
	o.OrderNumber = number

	if err := s.repos.Order.Create(ctx, o); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.BroadcastOrderUpdate(o.AccountID, o.ID, o.Status)
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, accountID, id uuid.UUID) (*domain.Order, error) {
	o, err := s.repos.Order.GetByID(ctx, id)
	if err != nil || o == nil {
		return o, err
	}
	if o.AccountID != accountID {
		return nil, nil
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, accountID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repos.Order.GetByAccountID(ctx, accountID, filter)
}

// UpdateStatus transitions an order and notifies connected dashboards.
func (s *OrderService) UpdateStatus(ctx context.Context, accountID, id uuid.UUID, status string) (*domain.Order, error) {
	if !validOrderStatuses[status] {
		return nil, fmt.Errorf("invalid order status: %s", status)
	}
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("order not found")
	}

	if err := s.repos.Order.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	existing.Status = status

	if s.hub != nil {
		s.hub.BroadcastOrderUpdate(accountID, id, status)
	}
	return existing, nil
}

func (s *OrderService) Update(ctx context.Context, accountID uuid.UUID, o *domain.Order) error {
	existing, err := s.Get(ctx, accountID, o.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("order not found")
	}
	if !validOrderStatuses[o.Status] {
		return fmt.Errorf("invalid order status: %s", o.Status)
	}
	// Order numbers are immutable once assigned
	o.OrderNumber = existing.OrderNumber
	return s.repos.Order.Update(ctx, o)
}

func (s *OrderService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("order not found")
	}
	return s.repos.Order.Delete(ctx, id)
}

// ReservationService handles table/appointment bookings
type ReservationService struct {
	repos *repository.Repositories
}

func (s *ReservationService) Create(ctx context.Context, r *domain.Reservation) error {
	if r.ReservedAt.Before(time.Now()) {
		return errors.New("reservation time must be in the future")
	}
	if r.PartySize <= 0 {
		r.PartySize = 1
	}
	if r.Status == "" {
		r.Status = domain.ReservationStatusPending
	}
	return s.repos.Reservation.Create(ctx, r)
}

func (s *ReservationService) Get(ctx context.Context, accountID, id uuid.UUID) (*domain.Reservation, error) {
	r, err := s.repos.Reservation.GetByID(ctx, id)
	if err != nil || r == nil {
		return r, err
	}
	if r.AccountID != accountID {
		return nil, nil
	}
	return r, nil
}

func (s *ReservationService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Reservation, error) {
	return s.repos.Reservation.GetByAccountID(ctx, accountID)
}

func (s *ReservationService) UpdateStatus(ctx context.Context, accountID, id uuid.UUID, status string) error {
	switch status {
	case domain.ReservationStatusPending, domain.ReservationStatusConfirmed,
		domain.ReservationStatusCancelled, domain.ReservationStatusCompleted:
	default:
		return fmt.Errorf("invalid reservation status: %s", status)
	}
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("reservation not found")
	}
	return s.repos.Reservation.UpdateStatus(ctx, id, status)
}

func (s *ReservationService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("reservation not found")
	}
	return s.repos.Reservation.Delete(ctx, id)
}

// PromotionService handles time-bounded offers
type PromotionService struct {
	repos *repository.Repositories
	store *storage.Storage
}

func (s *PromotionService) Create(ctx context.Context, p *domain.Promotion) error {
	if p.Name == "" {
		return errors.New("promotion name is required")
	}
	if p.StartsAt != nil && p.EndsAt != nil && p.EndsAt.Before(*p.StartsAt) {
		return errors.New("promotion end must be after start")
	}
	if p.MaxUses != nil && *p.MaxUses <= 0 {
		return errors.New("max uses must be positive when set")
	}
	p.IsActive = true
	return s.repos.Promotion.Create(ctx, p)
}

func (s *PromotionService) Get(ctx context.Context, accountID, id uuid.UUID) (*domain.Promotion, error) {
	p, err := s.repos.Promotion.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if p.AccountID != accountID {
		return nil, nil
	}
	return p, nil
}

func (s *PromotionService) List(ctx context.Context, accountID uuid.UUID) ([]*domain.Promotion, error) {
	return s.repos.Promotion.GetByAccountID(ctx, accountID)
}

func (s *PromotionService) Update(ctx context.Context, accountID uuid.UUID, p *domain.Promotion) error {
	existing, err := s.Get(ctx, accountID, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("promotion not found")
	}
	if p.StartsAt != nil && p.EndsAt != nil && p.EndsAt.Before(*p.StartsAt) {
		return errors.New("promotion end must be after start")
	}
	return s.repos.Promotion.Update(ctx, p)
}

// AttachImage uploads promotional artwork and stores the public URL on the
// promotion.
func (s *PromotionService) AttachImage(ctx context.Context, accountID, id uuid.UUID, data []byte, extension, contentType string) (string, error) {
	p, err := s.Get(ctx, accountID, id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", errors.New("promotion not found")
	}

	filename := storage.GeneratePromotionImagePath(extension)
	url, err := s.store.UploadFile(ctx, accountID, "", filename, data, contentType)
	if err != nil {
		return "", err
	}

	p.ImageURL = &url
	if err := s.repos.Promotion.Update(ctx, p); err != nil {
		return "", err
	}
	return url, nil
}

// Redeem consumes one use of a promotion. Fails when the promotion is
// exhausted, inactive, or outside its window.
func (s *PromotionService) Redeem(ctx context.Context, accountID, id uuid.UUID) error {
	p, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.New("promotion not found")
	}
	if !p.IsActive {
		return errors.New("promotion is not active")
	}
	now := time.Now()
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return errors.New("promotion has not started yet")
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return errors.New("promotion has ended")
	}
	return s.repos.Promotion.IncrementUses(ctx, id)
}

func (s *PromotionService) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	existing, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("promotion not found")
	}
	return s.repos.Promotion.Delete(ctx, id)
}
