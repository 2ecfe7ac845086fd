package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendebot/vende/internal/domain"
)

type Repositories struct {
	db           *pgxpool.Pool
	User         *UserRepository
	Account      *AccountRepository
	Bot          *BotRepository
	Client       *ClientRepository
	Business     *BusinessRepository
	Product      *ProductRepository
	Order        *OrderRepository
	Reservation  *ReservationRepository
	Promotion    *PromotionRepository
	MessageLog   *MessageLogRepository
	Subscription *SubscriptionRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		db:           db,
		User:         &UserRepository{db: db},
		Account:      &AccountRepository{db: db},
		Bot:          &BotRepository{db: db},
		Client:       &ClientRepository{db: db},
		Business:     &BusinessRepository{db: db},
		Product:      &ProductRepository{db: db},
		Order:        &OrderRepository{db: db},
		Reservation:  &ReservationRepository{db: db},
		Promotion:    &PromotionRepository{db: db},
		MessageLog:   &MessageLogRepository{db: db},
		Subscription: &SubscriptionRepository{db: db},
	}
}

// DB returns the underlying database pool.
func (r *Repositories) DB() *pgxpool.Pool {
	return r.db
}

// UserRepository handles user data access
type UserRepository struct {
	db *pgxpool.Pool
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(ctx, `
		SELECT u.id, u.account_id, u.username, u.email, u.password_hash, u.display_name, u.role, u.is_admin, u.is_active, u.created_at, u.updated_at, a.name
		FROM users u JOIN accounts a ON a.id = u.account_id
		WHERE u.username = $1 AND u.is_active = TRUE
	`, username).Scan(
		&user.ID, &user.AccountID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.Role, &user.IsAdmin, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.AccountName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(ctx, `
		SELECT u.id, u.account_id, u.username, u.email, u.password_hash, u.display_name, u.role, u.is_admin, u.is_active, u.created_at, u.updated_at, a.name
		FROM users u JOIN accounts a ON a.id = u.account_id
		WHERE u.id = $1
	`, id).Scan(
		&user.ID, &user.AccountID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.Role, &user.IsAdmin, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.AccountName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (account_id, username, email, password_hash, display_name, role, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, created_at, updated_at
	`, user.AccountID, user.Username, user.Email, user.PasswordHash, user.DisplayName, user.Role, user.IsAdmin).Scan(
		&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
	return err
}

// AccountRepository handles account (tenant) data access
type AccountRepository struct {
	db *pgxpool.Pool
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a := &domain.Account{}
	err := r.db.QueryRow(ctx, `
		SELECT a.id, a.name, COALESCE(a.slug, ''), a.plan, COALESCE(a.is_active, true), a.created_at, a.updated_at,
			(SELECT COUNT(*) FROM users WHERE account_id = a.id) as user_count,
			(SELECT COUNT(*) FROM bots WHERE account_id = a.id) as bot_count,
			(SELECT COUNT(*) FROM clients WHERE account_id = a.id) as client_count
		FROM accounts a WHERE a.id = $1
	`, id).Scan(&a.ID, &a.Name, &a.Slug, &a.Plan, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		&a.UserCount, &a.BotCount, &a.ClientCount)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO accounts (name, slug, plan, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, a.Name, a.Slug, a.Plan, a.IsActive).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET plan = $2, updated_at = NOW() WHERE id = $1`, id, plan)
	return err
}

// BotRepository handles chatbot data access
type BotRepository struct {
	db *pgxpool.Pool
}

const botColumns = `id, account_id, name, platform, phone_number_id, page_id, access_token,
       welcome_template, away_template, is_active, last_webhook_at, created_at, updated_at`

func scanBot(row pgx.Row) (*domain.Bot, error) {
	bot := &domain.Bot{}
	err := row.Scan(
		&bot.ID, &bot.AccountID, &bot.Name, &bot.Platform, &bot.PhoneNumberID, &bot.PageID,
		&bot.AccessToken, &bot.WelcomeTemplate, &bot.AwayTemplate, &bot.IsActive,
		&bot.LastWebhookAt, &bot.CreatedAt, &bot.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return bot, err
}

func (r *BotRepository) Create(ctx context.Context, bot *domain.Bot) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO bots (account_id, name, platform, phone_number_id, page_id, access_token, welcome_template, away_template, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, bot.AccountID, bot.Name, bot.Platform, bot.PhoneNumberID, bot.PageID, bot.AccessToken,
		bot.WelcomeTemplate, bot.AwayTemplate, bot.IsActive).Scan(&bot.ID, &bot.CreatedAt, &bot.UpdatedAt)
}

func (r *BotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bot, error) {
	return scanBot(r.db.QueryRow(ctx, `SELECT `+botColumns+` FROM bots WHERE id = $1`, id))
}

func (r *BotRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Bot, error) {
	rows, err := r.db.Query(ctx, `SELECT `+botColumns+` FROM bots WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*domain.Bot
	for rows.Next() {
		bot := &domain.Bot{}
		if err := rows.Scan(
			&bot.ID, &bot.AccountID, &bot.Name, &bot.Platform, &bot.PhoneNumberID, &bot.PageID,
			&bot.AccessToken, &bot.WelcomeTemplate, &bot.AwayTemplate, &bot.IsActive,
			&bot.LastWebhookAt, &bot.CreatedAt, &bot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}
	return bots, nil
}

func (r *BotRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bots WHERE account_id = $1`, accountID).Scan(&count)
	return count, err
}

// GetByPhoneNumberID finds the active WhatsApp bot bound to a Cloud API phone number.
func (r *BotRepository) GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*domain.Bot, error) {
	return scanBot(r.db.QueryRow(ctx, `
		SELECT `+botColumns+` FROM bots
		WHERE phone_number_id = $1 AND platform = $2 AND is_active = TRUE
	`, phoneNumberID, domain.PlatformWhatsApp))
}

// GetByPageID finds the active Instagram bot bound to a page.
func (r *BotRepository) GetByPageID(ctx context.Context, pageID string) (*domain.Bot, error) {
	return scanBot(r.db.QueryRow(ctx, `
		SELECT `+botColumns+` FROM bots
		WHERE page_id = $1 AND platform = $2 AND is_active = TRUE
	`, pageID, domain.PlatformInstagram))
}

func (r *BotRepository) Update(ctx context.Context, bot *domain.Bot) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bots SET name = $2, phone_number_id = $3, page_id = $4, access_token = $5,
			welcome_template = $6, away_template = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
	`, bot.ID, bot.Name, bot.PhoneNumberID, bot.PageID, bot.AccessToken,
		bot.WelcomeTemplate, bot.AwayTemplate, bot.IsActive)
	return err
}

func (r *BotRepository) TouchWebhook(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE bots SET last_webhook_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *BotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bots WHERE id = $1`, id)
	return err
}
