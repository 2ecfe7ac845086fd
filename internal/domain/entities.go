package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a tenant (one small business) in the multi-tenant system
type Account struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Plan      string    `json:"plan"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Populated on demand
	UserCount   int `json:"user_count,omitempty"`
	BotCount    int `json:"bot_count,omitempty"`
	ClientCount int `json:"client_count,omitempty"`
}

// Plan constants
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// PlanLimits defines what each plan allows
type PlanLimits struct {
	MaxBots         int
	MaxClients      int
	MonthlyMessages int
}

// LimitsFor returns the limits for a plan. Unknown plans get free limits.
func LimitsFor(plan string) PlanLimits {
	switch plan {
	case PlanStarter:
		return PlanLimits{MaxBots: 3, MaxClients: 1000, MonthlyMessages: 5000}
	case PlanPro:
		return PlanLimits{MaxBots: 10, MaxClients: 10000, MonthlyMessages: 50000}
	default:
		return PlanLimits{MaxBots: 1, MaxClients: 100, MonthlyMessages: 500}
	}
}

// User represents a dashboard user
type User struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"` // admin, operator
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Populated on demand
	AccountName string `json:"account_name,omitempty"`
}

// User role constants
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// Bot represents a connected WhatsApp or Instagram chatbot
type Bot struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       uuid.UUID  `json:"account_id"`
	Name            string     `json:"name"`
	Platform        string     `json:"platform"` // whatsapp, instagram
	PhoneNumberID   *string    `json:"phone_number_id,omitempty"`
	PageID          *string    `json:"page_id,omitempty"`
	AccessToken     string     `json:"-"`
	WelcomeTemplate *string    `json:"welcome_template,omitempty"`
	AwayTemplate    *string    `json:"away_template,omitempty"`
	IsActive        bool       `json:"is_active"`
	LastWebhookAt   *time.Time `json:"last_webhook_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Bot platform constants
const (
	PlatformWhatsApp  = "whatsapp"
	PlatformInstagram = "instagram"
)

// Client represents an end customer of a tenant's business
type Client struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       uuid.UUID  `json:"account_id"`
	Name            string     `json:"name"`
	Email           *string    `json:"email,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	InstagramHandle *string    `json:"instagram_handle,omitempty"`
	LoyaltyPoints   int        `json:"loyalty_points"`
	TotalPurchases  float64    `json:"total_purchases"`
	LastPurchaseAt  *time.Time `json:"last_purchase_at,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BusinessProfile holds the public-facing info of a tenant's business.
// One per account, keyed by the owning account.
type BusinessProfile struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	MenuURL     string    `json:"menu_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product represents a sellable item
type Product struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order represents a customer order
type Order struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         uuid.UUID  `json:"account_id"`
	ClientID          *uuid.UUID `json:"client_id,omitempty"`
	OrderNumber       string     `json:"order_number"`
	Total             float64    `json:"total"`
	Status            string     `json:"status"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Populated on demand
	ClientName *string `json:"client_name,omitempty"`
}

// Order status constants (product vocabulary is Spanish)
const (
	OrderStatusPending   = "pendiente"
	OrderStatusConfirmed = "confirmado"
	OrderStatusPreparing = "en preparación"
	OrderStatusShipped   = "en camino"
	OrderStatusDelivered = "entregado"
	OrderStatusCancelled = "cancelado"
)

// Reservation represents a table/appointment booking made through a bot
type Reservation struct {
	ID         uuid.UUID  `json:"id"`
	AccountID  uuid.UUID  `json:"account_id"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	ReservedAt time.Time  `json:"reserved_at"`
	PartySize  int        `json:"party_size"`
	Status     string     `json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Populated on demand
	ClientName *string `json:"client_name,omitempty"`
}

// Reservation status constants
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusCompleted = "completed"
)

// Promotion represents a time-bounded offer a bot can announce
type Promotion struct {
	ID          uuid.UUID  `json:"id"`
	AccountID   uuid.UUID  `json:"account_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	MaxUses     *int       `json:"max_uses,omitempty"` // nil = unlimited
	CurrentUses int        `json:"current_uses"`
	ImageURL    *string    `json:"image_url,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MessageLog records one outbound message relayed to Meta
type MessageLog struct {
	ID        uuid.UUID  `json:"id"`
	AccountID uuid.UUID  `json:"account_id"`
	BotID     *uuid.UUID `json:"bot_id,omitempty"`
	ClientID  *uuid.UUID `json:"client_id,omitempty"`
	Platform  string     `json:"platform"`
	Recipient string     `json:"recipient"`
	Body      string     `json:"body"`
	Status    string     `json:"status"` // sent, failed
	Error     *string    `json:"error,omitempty"`
	SentAt    time.Time  `json:"sent_at"`
}

// Message log status constants
const (
	MessageStatusSent   = "sent"
	MessageStatusFailed = "failed"
)

// Subscription tracks a tenant's billing period and message usage
type Subscription struct {
	ID                 uuid.UUID `json:"id"`
	AccountID          uuid.UUID `json:"account_id"`
	Plan               string    `json:"plan"`
	Status             string    `json:"status"` // active, past_due, cancelled
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	MessagesUsed       int       `json:"messages_used"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Subscription status constants
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPastDue   = "past_due"
	SubscriptionStatusCancelled = "cancelled"
)

// ClientFilter defines filter options for listing clients
type ClientFilter struct {
	Search string
	Limit  int
	Offset int
}

// OrderFilter defines filter options for listing orders
type OrderFilter struct {
	Status   string
	ClientID *uuid.UUID
	Limit    int
	Offset   int
}
