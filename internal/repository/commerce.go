package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendebot/vende/internal/domain"
)

// ProductRepository handles product data access
type ProductRepository struct {
	db *pgxpool.Pool
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO products (account_id, name, description, price, stock, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.AccountID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.IsActive).Scan(
		&p.ID, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p := &domain.Product{}
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, name, description, price, stock, image_url, is_active, created_at, updated_at
		FROM products WHERE id = $1
	`, id).Scan(
		&p.ID, &p.AccountID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *ProductRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, name, description, price, stock, image_url, is_active, created_at, updated_at
		FROM products WHERE account_id = $1 ORDER BY name ASC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(
			&p.ID, &p.AccountID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	_, err := r.db.Exec(ctx, `
		UPDATE products SET name = $2, description = $3, price = $4, stock = $5, image_url = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.IsActive)
	return err
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

// OrderRepository handles order data access
type OrderRepository struct {
	db *pgxpool.Pool
}

const orderColumns = `o.id, o.account_id, o.client_id, o.order_number, o.total, o.status,
       o.estimated_delivery, o.notes, o.created_at, o.updated_at, c.name`

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO orders (account_id, client_id, order_number, total, status, estimated_delivery, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, o.AccountID, o.ClientID, o.OrderNumber, o.Total, o.Status, o.EstimatedDelivery, o.Notes).Scan(
		&o.ID, &o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o := &domain.Order{}
	err := r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o LEFT JOIN clients c ON c.id = o.client_id
		WHERE o.id = $1
	`, id).Scan(
		&o.ID, &o.AccountID, &o.ClientID, &o.OrderNumber, &o.Total, &o.Status,
		&o.EstimatedDelivery, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.ClientName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *OrderRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, int, error) {
	baseQuery := `
		FROM orders o LEFT JOIN clients c ON c.id = o.client_id
		WHERE o.account_id = $1
	`
	args := []interface{}{accountID}
	argNum := 2

	if filter.Status != "" {
		baseQuery += fmt.Sprintf(" AND o.status = $%d", argNum)
		args = append(args, filter.Status)
		argNum++
	}
	if filter.ClientID != nil {
		baseQuery += fmt.Sprintf(" AND o.client_id = $%d", argNum)
		args = append(args, *filter.ClientID)
		argNum++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	selectQuery := "SELECT " + orderColumns + baseQuery + " ORDER BY o.created_at DESC"
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

	var orders []*domain.Order
	for rows.Next() {
		o := &domain.Order{}
		if err := rows.Scan(
			&o.ID, &o.AccountID, &o.ClientID, &o.OrderNumber, &o.Total, &o.Status,
			&o.EstimatedDelivery, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.ClientName,
		); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	_, err := r.db.Exec(ctx, `
		UPDATE orders SET client_id = $2, total = $3, status = $4, estimated_delivery = $5, notes = $6, updated_at = NOW()
		WHERE id = $1
	`, o.ID, o.ClientID, o.Total, o.Status, o.EstimatedDelivery, o.Notes)
	return err
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

// NextOrderNumber allocates a sequential per-account order number like PED-0042.
func (r *OrderRepository) NextOrderNumber(ctx context.Context, accountID uuid.UUID) (string, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE account_id = $1`, accountID).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("PED-%04d", count+1), nil
}

// ReservationRepository handles reservation data access
type ReservationRepository struct {
	db *pgxpool.Pool
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO reservations (account_id, client_id, reserved_at, party_size, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, res.AccountID, res.ClientID, res.ReservedAt, res.PartySize, res.Status, res.Notes).Scan(
		&res.ID, &res.CreatedAt, &res.UpdatedAt,
	)
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.account_id, r.client_id, r.reserved_at, r.party_size, r.status, r.notes, r.created_at, r.updated_at, c.name
		FROM reservations r LEFT JOIN clients c ON c.id = r.client_id
		WHERE r.id = $1
	`, id).Scan(
		&res.ID, &res.AccountID, &res.ClientID, &res.ReservedAt, &res.PartySize, &res.Status,
		&res.Notes, &res.CreatedAt, &res.UpdatedAt, &res.ClientName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return res, err
}

func (r *ReservationRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.account_id, r.client_id, r.reserved_at, r.party_size, r.status, r.notes, r.created_at, r.updated_at, c.name
		FROM reservations r LEFT JOIN clients c ON c.id = r.client_id
		WHERE r.account_id = $1 ORDER BY r.reserved_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		res := &domain.Reservation{}
		if err := rows.Scan(
			&res.ID, &res.AccountID, &res.ClientID, &res.ReservedAt, &res.PartySize, &res.Status,
			&res.Notes, &res.CreatedAt, &res.UpdatedAt, &res.ClientName,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx, `UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *ReservationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	return err
}

// PromotionRepository handles promotion data access
type PromotionRepository struct {
	db *pgxpool.Pool
}

const promotionColumns = `id, account_id, name, description, starts_at, ends_at, max_uses, current_uses, image_url, is_active, created_at, updated_at`

func (r *PromotionRepository) Create(ctx context.Context, p *domain.Promotion) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO promotions (account_id, name, description, starts_at, ends_at, max_uses, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, current_uses, created_at, updated_at
	`, p.AccountID, p.Name, p.Description, p.StartsAt, p.EndsAt, p.MaxUses, p.ImageURL, p.IsActive).Scan(
		&p.ID, &p.CurrentUses, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *PromotionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Promotion, error) {
	p := &domain.Promotion{}
	err := r.db.QueryRow(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id).Scan(
		&p.ID, &p.AccountID, &p.Name, &p.Description, &p.StartsAt, &p.EndsAt,
		&p.MaxUses, &p.CurrentUses, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *PromotionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) ([]*domain.Promotion, error) {
	rows, err := r.db.Query(ctx, `SELECT `+promotionColumns+` FROM promotions WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promotions []*domain.Promotion
	for rows.Next() {
		p := &domain.Promotion{}
		if err := rows.Scan(
			&p.ID, &p.AccountID, &p.Name, &p.Description, &p.StartsAt, &p.EndsAt,
			&p.MaxUses, &p.CurrentUses, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	return promotions, nil
}

func (r *PromotionRepository) Update(ctx context.Context, p *domain.Promotion) error {
	_, err := r.db.Exec(ctx, `
		UPDATE promotions SET name = $2, description = $3, starts_at = $4, ends_at = $5, max_uses = $6, image_url = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.StartsAt, p.EndsAt, p.MaxUses, p.ImageURL, p.IsActive)
	return err
}

// IncrementUses records one redemption. It refuses to pass max_uses.
func (r *PromotionRepository) IncrementUses(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE promotions SET current_uses = current_uses + 1, updated_at = NOW()
		WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("promotion exhausted or not found")
	}
	return nil
}

func (r *PromotionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	return err
}
