package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendebot/vende/internal/domain"
)

// ClientRepository handles end-customer data access
type ClientRepository struct {
	db *pgxpool.Pool
}

const clientColumns = `id, account_id, name, email, phone, instagram_handle, loyalty_points,
       total_purchases, last_purchase_at, notes, created_at, updated_at`

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	c := &domain.Client{}
	err := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id).Scan(
		&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.InstagramHandle,
		&c.LoyaltyPoints, &c.TotalPurchases, &c.LastPurchaseAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ClientRepository) GetByPhone(ctx context.Context, accountID uuid.UUID, phone string) (*domain.Client, error) {
	c := &domain.Client{}
	err := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE account_id = $1 AND phone = $2`, accountID, phone).Scan(
		&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.InstagramHandle,
		&c.LoyaltyPoints, &c.TotalPurchases, &c.LastPurchaseAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ClientRepository) GetByInstagramHandle(ctx context.Context, accountID uuid.UUID, handle string) (*domain.Client, error) {
	c := &domain.Client{}
	err := r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE account_id = $1 AND instagram_handle = $2`, accountID, handle).Scan(
		&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.InstagramHandle,
		&c.LoyaltyPoints, &c.TotalPurchases, &c.LastPurchaseAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *ClientRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, filter domain.ClientFilter) ([]*domain.Client, int, error) {
	baseQuery := ` FROM clients WHERE account_id = $1`
	args := []interface{}{accountID}
	argNum := 2

	if filter.Search != "" {
		baseQuery += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d OR instagram_handle ILIKE $%d)", argNum, argNum, argNum, argNum)
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	selectQuery := "SELECT " + clientColumns + baseQuery + " ORDER BY name ASC"
	if filter.Limit > 0 {
		selectQuery += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			selectQuery += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		c := &domain.Client{}
		if err := rows.Scan(
			&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.InstagramHandle,
			&c.LoyaltyPoints, &c.TotalPurchases, &c.LastPurchaseAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		clients = append(clients, c)
	}
	return clients, total, nil
}

func (r *ClientRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE account_id = $1`, accountID).Scan(&count)
	return count, err
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO clients (account_id, name, email, phone, instagram_handle, loyalty_points, total_purchases, last_purchase_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, c.AccountID, c.Name, c.Email, c.Phone, c.InstagramHandle, c.LoyaltyPoints,
		c.TotalPurchases, c.LastPurchaseAt, c.Notes).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	_, err := r.db.Exec(ctx, `
		UPDATE clients SET name = $2, email = $3, phone = $4, instagram_handle = $5,
			loyalty_points = $6, total_purchases = $7, last_purchase_at = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
	`, c.ID, c.Name, c.Email, c.Phone, c.InstagramHandle, c.LoyaltyPoints,
		c.TotalPurchases, c.LastPurchaseAt, c.Notes)
	return err
}

// RecordPurchase bumps loyalty points and lifetime totals after an order.
func (r *ClientRepository) RecordPurchase(ctx context.Context, id uuid.UUID, amount float64, points int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE clients SET total_purchases = total_purchases + $2, loyalty_points = loyalty_points + $3,
			last_purchase_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id, amount, points)
	return err
}

func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return err
}

// BusinessRepository handles the per-account business profile
type BusinessRepository struct {
	db *pgxpool.Pool
}

func (r *BusinessRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.BusinessProfile, error) {
	b := &domain.BusinessProfile{}
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, COALESCE(display_name, ''), COALESCE(description, ''), COALESCE(location, ''), COALESCE(menu_url, ''), created_at, updated_at
		FROM business_profiles WHERE account_id = $1
	`, accountID).Scan(
		&b.ID, &b.AccountID, &b.DisplayName, &b.Description, &b.Location, &b.MenuURL, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *BusinessRepository) Upsert(ctx context.Context, b *domain.BusinessProfile) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO business_profiles (account_id, display_name, description, location, menu_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			menu_url = EXCLUDED.menu_url,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, b.AccountID, b.DisplayName, b.Description, b.Location, b.MenuURL).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}
