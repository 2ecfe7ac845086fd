package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/domain"
	"github.com/vendebot/vende/internal/meta"
	"github.com/vendebot/vende/internal/repository"
	"github.com/vendebot/vende/internal/resolver"
	"github.com/vendebot/vende/internal/storage"
	"github.com/vendebot/vende/internal/ws"
	"golang.org/x/crypto/bcrypt"
)

type Services struct {
	Auth        *AuthService
	Account     *AccountService
	Bot         *BotService
	Client      *ClientService
	Business    *BusinessService
	Product     *ProductService
	Order       *OrderService
	Reservation *ReservationService
	Promotion   *PromotionService
	Billing     *BillingService
	Preview     *PreviewService
	Automation  *AutomationService
}

func NewServices(repos *repository.Repositories, engine *resolver.Engine, graph *meta.Client, hub *ws.Hub, store *storage.Storage) *Services {
	billing := &BillingService{repos: repos}
	return &Services{
		Auth:        &AuthService{repos: repos},
		Account:     &AccountService{repos: repos},
		Bot:         &BotService{repos: repos},
		Client:      &ClientService{repos: repos},
		Business:    &BusinessService{repos: repos},
		Product:     &ProductService{repos: repos, store: store},
		Order:       &OrderService{repos: repos, hub: hub},
		Reservation: &ReservationService{repos: repos},
		Promotion:   &PromotionService{repos: repos, store: store},
		Billing:     billing,
		Preview:     &PreviewService{engine: engine},
		Automation:  &AutomationService{repos: repos, engine: engine, graph: graph, hub: hub, billing: billing},
	}
}

// AuthService handles authentication
type AuthService struct {
	repos *repository.Repositories
}

type JWTClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	AccountID uuid.UUID `json:"account_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	jwt.RegisteredClaims
}

func (s *AuthService) Login(ctx context.Context, username, password, jwtSecret string) (string, *domain.User, error) {
	user, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	// Generate JWT
	claims := &JWTClaims{
		UserID:    user.ID,
		AccountID: user.AccountID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * 7 * time.Hour)), // 7 days
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "vende",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, user, nil
}

func (s *AuthService) ValidateToken(tokenString, jwtSecret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.repos.User.GetByID(ctx, userID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect")
	}

	if len(newPassword) < 8 {
		return fmt.Errorf("new password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repos.User.UpdatePassword(ctx, userID, string(hash))
}

// AccountService exposes tenant info
type AccountService struct {
	repos *repository.Repositories
}

func (s *AccountService) Get(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.repos.Account.GetByID(ctx, accountID)
}
