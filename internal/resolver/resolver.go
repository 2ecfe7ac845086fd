// Package resolver turns free-text message templates with {token}
// placeholders into concrete outbound text by looking up live client,
// business, promotion and order records. A token that cannot be resolved
// stays visible as literal {token} text; a failure anywhere degrades the
// whole call to returning the template unchanged. The engine performs no
// writes and keeps no state between calls.
package resolver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PreviewClientID is the reserved sentinel the dashboard sends when
// previewing a template with no real client selected.
const PreviewClientID = "cliente-ejemplo"

// Platform identifies the outbound channel.
type Platform string

// Outbound platforms
const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformEmail     Platform = "email"
)

// ClientRef names either a stored client or the synthetic preview client.
// The zero value means "no client in context".
type ClientRef struct {
	id      uuid.UUID
	preview bool
	valid   bool
}

// RealClient references a stored client by ID.
func RealClient(id uuid.UUID) ClientRef {
	return ClientRef{id: id, valid: true}
}

// PreviewClient references the synthetic preview client.
func PreviewClient() ClientRef {
	return ClientRef{preview: true, valid: true}
}

// ParseClientRef interprets a wire-level client ID: the reserved sentinel
// maps to the preview client, anything else must be a UUID.
func ParseClientRef(s string) (ClientRef, error) {
	if s == PreviewClientID {
		return PreviewClient(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return ClientRef{}, err
	}
	return RealClient(id), nil
}

// IsZero reports whether no client was supplied.
func (r ClientRef) IsZero() bool { return !r.valid }

// IsPreview reports whether the reference is the synthetic preview client.
func (r ClientRef) IsPreview() bool { return r.valid && r.preview }

// Context carries the entity IDs a resolution call may draw from. AccountID
// is required; everything else is optional.
type Context struct {
	AccountID   uuid.UUID
	Client      ClientRef
	PromotionID *uuid.UUID
	OrderID     *uuid.UUID
	Platform    Platform
}

// Engine resolves templates against the backing stores.
type Engine struct {
	clients    ClientStore
	business   BusinessStore
	promotions PromotionStore
	orders     OrderStore
	now        func() time.Time
}

// New creates an Engine over the given stores.
func New(clients ClientStore, business BusinessStore, promotions PromotionStore, orders OrderStore) *Engine {
	return &Engine{
		clients:    clients,
		business:   business,
		promotions: promotions,
		orders:     orders,
		now:        time.Now,
	}
}

// Resolve substitutes every resolvable {token} in template using the
// entities named by rc. Unresolvable tokens stay literal. If anything in
// the pipeline fails unexpectedly the original template is returned
// byte-for-byte; resolution never corrupts or strips content.
func (e *Engine) Resolve(ctx context.Context, template string, rc Context) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Resolver] recovered: %v", r)
			out = template
		}
	}()

	vars, err := e.collect(ctx, rc)
	if err != nil {
		log.Printf("[Resolver] provider failure, returning template unchanged: %v", err)
		return template
	}
	return substitute(template, vars)
}

// collect runs every provider that has a usable ID and merges the results
// in a fixed order: client, business, promotion, order, temporal. Later
// providers win on key collisions (namespacing makes collisions unlikely).
// The lookups are independent and run concurrently; the merge order does
// not depend on completion order. A panicking provider fails the whole
// collection.
func (e *Engine) collect(ctx context.Context, rc Context) (map[string]string, error) {
	var clientV, businessV, promoV, orderV map[string]string

	g, gctx := errgroup.WithContext(ctx)
	if !rc.Client.IsZero() {
		g.Go(guarded(func() {
			clientV = e.clientVars(gctx, rc.Client)
		}))
	}
	g.Go(guarded(func() {
		businessV = e.businessVars(gctx, rc.AccountID)
	}))
	if rc.PromotionID != nil {
		id := *rc.PromotionID
		g.Go(guarded(func() {
			promoV = e.promotionVars(gctx, id)
		}))
	}
	if rc.OrderID != nil {
		id := *rc.OrderID
		g.Go(guarded(func() {
			orderV = e.orderVars(gctx, id)
		}))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(Vocabulary))
	for _, vars := range []map[string]string{clientV, businessV, promoV, orderV, e.temporalVars()} {
		for k, v := range vars {
			merged[k] = v
		}
	}
	return merged, nil
}

// guarded converts a provider panic into an error so a blown-up lookup
// can never take the process down; Resolve turns it into a no-op.
func guarded(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("provider panic: %v", r)
			}
		}()
		fn()
		return nil
	}
}

// Unresolved returns the tokens still present in text that belong to the
// known vocabulary. Callers use it to tell a fully resolved message from a
// partially resolved one.
func Unresolved(text string) []string {
	known := make(map[string]bool, len(Vocabulary))
	for _, t := range Vocabulary {
		known[t] = true
	}

	var out []string
	for _, t := range ExtractTokens(text) {
		if known[t] {
			out = append(out, t)
		}
	}
	return out
}
