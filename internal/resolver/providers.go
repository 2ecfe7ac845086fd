package resolver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/domain"
)

// ClientStore fetches one client by ID.
type ClientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
}

// BusinessStore fetches the business profile owned by an account.
type BusinessStore interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.BusinessProfile, error)
}

// PromotionStore fetches one promotion by ID.
type PromotionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Promotion, error)
}

// OrderStore fetches one order by ID.
type OrderStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// previewLastPurchase is the fixed last-purchase date of the synthetic
// preview client.
var previewLastPurchase = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

// previewClientVars returns the fixed synthetic record used by preview
// flows. It never touches the store.
func previewClientVars() map[string]string {
	return map[string]string{
		"nombre":            "María González",
		"email":             "maria@ejemplo.com",
		"telefono":          "+52 55 1234 5678",
		"instagram_usuario": "@maria.gonzalez",
		"puntos":            "150 puntos",
		"total_compras":     FormatCurrency(1250.50),
		"ultima_compra":     FormatDate(previewLastPurchase),
	}
}

// clientVars maps a client record to its token namespace. Lookup misses and
// store errors degrade to an empty map so dependent tokens stay literal.
func (e *Engine) clientVars(ctx context.Context, ref ClientRef) map[string]string {
	if ref.IsPreview() {
		return previewClientVars()
	}

	client, err := e.clients.GetByID(ctx, ref.id)
	if err != nil || client == nil {
		if err != nil {
			log.Printf("[Resolver] client lookup %s failed: %v", ref.id, err)
		}
		return map[string]string{}
	}

	lastPurchase := "Sin compras registradas"
	if client.LastPurchaseAt != nil {
		lastPurchase = FormatDate(*client.LastPurchaseAt)
	}

	return map[string]string{
		"nombre":            client.Name,
		"email":             strVal(client.Email),
		"telefono":          strVal(client.Phone),
		"instagram_usuario": strVal(client.InstagramHandle),
		"puntos":            fmt.Sprintf("%d puntos", client.LoyaltyPoints),
		"total_compras":     FormatCurrency(client.TotalPurchases),
		"ultima_compra":     lastPurchase,
	}
}

// businessVars maps the tenant's business profile to its token namespace.
// Every key is present; absent fields render as the empty string.
func (e *Engine) businessVars(ctx context.Context, accountID uuid.UUID) map[string]string {
	profile, err := e.business.GetByAccountID(ctx, accountID)
	if err != nil || profile == nil {
		if err != nil {
			log.Printf("[Resolver] business lookup %s failed: %v", accountID, err)
		}
		return map[string]string{}
	}

	return map[string]string{
		"nombre_negocio":      profile.DisplayName,
		"descripcion_negocio": profile.Description,
		"ubicacion":           profile.Location,
		"enlace_menu":         profile.MenuURL,
	}
}

// promotionVars maps a promotion record to its token namespace.
func (e *Engine) promotionVars(ctx context.Context, id uuid.UUID) map[string]string {
	promo, err := e.promotions.GetByID(ctx, id)
	if err != nil || promo == nil {
		if err != nil {
			log.Printf("[Resolver] promotion lookup %s failed: %v", id, err)
		}
		return map[string]string{}
	}

	maxUses := "Sin límite"
	if promo.MaxUses != nil {
		maxUses = fmt.Sprintf("%d personas", *promo.MaxUses)
	}

	return map[string]string{
		"nombre_promocion":      promo.Name,
		"descripcion_promocion": strVal(promo.Description),
		"fecha_inicio":          dateVal(promo.StartsAt),
		"fecha_fin":             dateVal(promo.EndsAt),
		"usos_maximos":          maxUses,
		"usos_actuales":         fmt.Sprintf("%d personas", promo.CurrentUses),
	}
}

// orderVars maps an order record to its token namespace.
func (e *Engine) orderVars(ctx context.Context, id uuid.UUID) map[string]string {
	order, err := e.orders.GetByID(ctx, id)
	if err != nil || order == nil {
		if err != nil {
			log.Printf("[Resolver] order lookup %s failed: %v", id, err)
		}
		return map[string]string{}
	}

	return map[string]string{
		"numero_pedido": order.OrderNumber,
		"total_pedido":  FormatCurrency(order.Total),
		"estado_pedido": order.Status,
		"fecha_entrega": dateVal(order.EstimatedDelivery),
	}
}

// temporalVars derives tokens from the current instant. It has no external
// input and always succeeds.
func (e *Engine) temporalVars() map[string]string {
	now := e.now()
	return map[string]string{
		"fecha_actual": FormatDate(now),
		"hora_actual":  now.Format("15:04"),
		"dia_semana":   weekdayNames[now.Weekday()],
	}
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateVal(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}
