package resolver

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/domain"
)

type fakeStore struct {
	client    *domain.Client
	business  *domain.BusinessProfile
	promotion *domain.Promotion
	order     *domain.Order

	err         error
	clientCalls int
	panics      bool
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	f.clientCalls++
	if f.panics {
		panic("store exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func (f *fakeStore) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.BusinessProfile, error) {
	if f.panics {
		panic("store exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.business, nil
}

type fakePromotionStore struct{ fakeStore }

func (f *fakePromotionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Promotion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.promotion, nil
}

type fakeOrderStore struct{ fakeStore }

func (f *fakeOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

// newTestEngine wires an engine over fakes with a frozen clock:
// Monday 2024-10-28 14:30 UTC.
func newTestEngine(store *fakeStore, promos *fakePromotionStore, orders *fakeOrderStore) *Engine {
	e := New(store, store, promos, orders)
	e.now = func() time.Time {
		return time.Date(2024, time.October, 28, 14, 30, 0, 0, time.UTC)
	}
	return e
}

func fullClient() *domain.Client {
	return &domain.Client{
		ID:              uuid.New(),
		Name:            "Carlos",
		Email:           strPtr("carlos@test.com"),
		Phone:           strPtr("+52 55 9999 0000"),
		InstagramHandle: strPtr("@carlos"),
		LoyaltyPoints:   250,
		TotalPurchases:  980.5,
		LastPurchaseAt:  timePtr(time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC)),
	}
}

func TestResolveNoTokensIsIdentity(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakePromotionStore{}, &fakeOrderStore{})

	inputs := []string{
		"",
		"Hola, bienvenido a nuestra tienda",
		"unbalanced { brace",
		"closing } only",
	}
	for _, in := range inputs {
		if got := e.Resolve(context.Background(), in, Context{AccountID: uuid.New()}); got != in {
			t.Errorf("Resolve(%q) = %q, want identity", in, got)
		}
	}
}

func TestResolveClientTokens(t *testing.T) {
	client := fullClient()
	store := &fakeStore{client: client}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	rc := Context{AccountID: uuid.New(), Client: RealClient(client.ID), Platform: PlatformWhatsApp}
	got := e.Resolve(context.Background(), "Hola {nombre}, tenés {puntos}. Total: {total_compras}. Última: {ultima_compra}", rc)
	want := "Hola Carlos, tenés 250 puntos. Total: $980.50. Última: 2 de junio de 2024"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveGlobalReplace(t *testing.T) {
	client := fullClient()
	store := &fakeStore{client: client}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	rc := Context{AccountID: uuid.New(), Client: RealClient(client.ID)}
	got := e.Resolve(context.Background(), "{nombre} {nombre} y otra vez {nombre}", rc)
	if got != "Carlos Carlos y otra vez Carlos" {
		t.Errorf("global replace failed: %q", got)
	}
}

func TestResolveEmptyFieldLeavesLiteralToken(t *testing.T) {
	client := fullClient()
	client.Email = nil
	store := &fakeStore{client: client}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	rc := Context{AccountID: uuid.New(), Client: RealClient(client.ID)}
	got := e.Resolve(context.Background(), "Escribinos a {email}", rc)
	if got != "Escribinos a {email}" {
		t.Errorf("empty field must keep literal token, got %q", got)
	}
}

func TestResolveMissingContextLeavesLiteralToken(t *testing.T) {
	client := fullClient()
	store := &fakeStore{client: client}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	// Scenario from the product: clientId present, no orderId.
	rc := Context{AccountID: uuid.New(), Client: RealClient(client.ID)}
	got := e.Resolve(context.Background(), "Hola {nombre}, tenés {puntos} y tu pedido {numero_pedido} llega el {fecha_entrega}", rc)
	want := "Hola Carlos, tenés 250 puntos y tu pedido {numero_pedido} llega el {fecha_entrega}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveIdempotentOnResolvedText(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakePromotionStore{}, &fakeOrderStore{})

	resolved := "Hola Carlos, tenés 250 puntos"
	if got := e.Resolve(context.Background(), resolved, Context{AccountID: uuid.New()}); got != resolved {
		t.Errorf("re-resolving resolved text changed it: %q", got)
	}
}

func TestResolvePreviewClientSkipsStore(t *testing.T) {
	store := &fakeStore{err: errors.New("must not be called")}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	rc := Context{AccountID: uuid.New(), Client: PreviewClient()}
	got := e.Resolve(context.Background(), "Hola {nombre}, tenés {puntos}", rc)
	want := "Hola María González, tenés 150 puntos"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if store.clientCalls != 0 {
		t.Errorf("preview client performed %d store lookups, want 0", store.clientCalls)
	}
}

func TestResolveMalformedSpanStaysLiteral(t *testing.T) {
	client := fullClient()
	store := &fakeStore{client: client}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	rc := Context{AccountID: uuid.New(), Client: RealClient(client.ID)}

	// Unbalanced open brace: no substitution on that span.
	if got := e.Resolve(context.Background(), "Hola {nombre", rc); got != "Hola {nombre" {
		t.Errorf("unbalanced span altered: %q", got)
	}

	// Well-formed tokens elsewhere still resolve.
	got := e.Resolve(context.Background(), "Hola {nombre, sos {nombre}", rc)
	if got != "Hola {nombre, sos Carlos" {
		t.Errorf("got %q", got)
	}
}

func TestResolveStoreErrorDegradesToLiteral(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	rc := Context{AccountID: uuid.New(), Client: RealClient(uuid.New())}
	got := e.Resolve(context.Background(), "Hola {nombre}", rc)
	if got != "Hola {nombre}" {
		t.Errorf("store error must leave token literal, got %q", got)
	}
}

func TestResolvePanicReturnsOriginalTemplate(t *testing.T) {
	store := &fakeStore{client: fullClient(), panics: true}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	tmpl := "Hola {nombre}, hoy es {dia_semana}"
	rc := Context{AccountID: uuid.New(), Client: RealClient(uuid.New())}
	if got := e.Resolve(context.Background(), tmpl, rc); got != tmpl {
		t.Errorf("panic must return original template, got %q", got)
	}
}

func TestResolveTemporalTokens(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakePromotionStore{}, &fakeOrderStore{})

	got := e.Resolve(context.Background(), "Hoy {fecha_actual} a las {hora_actual} ({dia_semana})", Context{AccountID: uuid.New()})
	want := "Hoy 28 de octubre de 2024 a las 14:30 (Lunes)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolvePromotionTokens(t *testing.T) {
	tests := []struct {
		name  string
		promo *domain.Promotion
		tmpl  string
		want  string
	}{
		{
			name: "limited uses and dates",
			promo: &domain.Promotion{
				Name:        "2x1 Pizzas",
				Description: strPtr("Solo los martes"),
				StartsAt:    timePtr(time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)),
				EndsAt:      timePtr(time.Date(2024, time.October, 31, 0, 0, 0, 0, time.UTC)),
				MaxUses:     intPtr(50),
				CurrentUses: 12,
			},
			tmpl: "{nombre_promocion}: {descripcion_promocion}, del {fecha_inicio} al {fecha_fin}, cupo {usos_maximos}, van {usos_actuales}",
			want: "2x1 Pizzas: Solo los martes, del 1 de octubre de 2024 al 31 de octubre de 2024, cupo 50 personas, van 12 personas",
		},
		{
			name:  "unlimited without dates",
			promo: &domain.Promotion{Name: "Envío gratis"},
			tmpl:  "{nombre_promocion} cupo {usos_maximos}, van {usos_actuales}, desde {fecha_inicio}",
			want:  "Envío gratis cupo Sin límite, van 0 personas, desde {fecha_inicio}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promos := &fakePromotionStore{fakeStore{promotion: tt.promo}}
			e := newTestEngine(&fakeStore{}, promos, &fakeOrderStore{})
			id := uuid.New()
			got := e.Resolve(context.Background(), tt.tmpl, Context{AccountID: uuid.New(), PromotionID: &id})
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveOrderTokens(t *testing.T) {
	orders := &fakeOrderStore{fakeStore{order: &domain.Order{
		OrderNumber:       "PED-0042",
		Total:             350,
		Status:            domain.OrderStatusShipped,
		EstimatedDelivery: timePtr(time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC)),
	}}}
	e := newTestEngine(&fakeStore{}, &fakePromotionStore{}, orders)

	id := uuid.New()
	got := e.Resolve(context.Background(), "Pedido {numero_pedido} ({estado_pedido}) por {total_pedido}, llega el {fecha_entrega}", Context{AccountID: uuid.New(), OrderID: &id})
	want := "Pedido PED-0042 (en camino) por $350.00, llega el 2 de noviembre de 2024"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveBusinessTokens(t *testing.T) {
	store := &fakeStore{business: &domain.BusinessProfile{
		DisplayName: "Taquería El Paso",
		Description: "Tacos al pastor desde 1990",
		Location:    "Av. Juárez 123, CDMX",
		// MenuURL intentionally absent
	}}
	e := newTestEngine(store, &fakePromotionStore{}, &fakeOrderStore{})

	got := e.Resolve(context.Background(), "{nombre_negocio} — {ubicacion}. Menú: {enlace_menu}", Context{AccountID: uuid.New()})
	want := "Taquería El Paso — Av. Juárez 123, CDMX. Menú: {enlace_menu}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"sin tokens", nil},
		{"{nombre}", []string{"nombre"}},
		{"{nombre} y {puntos} y {nombre}", []string{"nombre", "puntos"}},
		{"{a}{b}{a}{c}", []string{"a", "b", "c"}},
		{"roto {nombre y bien {puntos}", []string{"puntos"}},
		{"anidado {{nombre}} cuenta el interno", []string{"nombre"}},
		{"solo llaves {}", nil},
	}

	for _, tt := range tests {
		if got := ExtractTokens(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractTokens(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseClientRef(t *testing.T) {
	ref, err := ParseClientRef(PreviewClientID)
	if err != nil || !ref.IsPreview() {
		t.Fatalf("sentinel must parse to preview client: %v", err)
	}

	id := uuid.New()
	ref, err = ParseClientRef(id.String())
	if err != nil || ref.IsZero() || ref.IsPreview() {
		t.Fatalf("uuid must parse to real client: %v", err)
	}

	if _, err := ParseClientRef("not-a-uuid"); err == nil {
		t.Fatal("garbage must not parse")
	}
}

func TestUnresolved(t *testing.T) {
	got := Unresolved("Hola Carlos, tu pedido {numero_pedido} llega el {fecha_entrega}. {token_invento}")
	want := []string{"numero_pedido", "fecha_entrega"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unresolved = %v, want %v", got, want)
	}
}

func TestFormatDate(t *testing.T) {
	got := FormatDate(time.Date(2024, time.October, 28, 0, 0, 0, 0, time.UTC))
	if got != "28 de octubre de 2024" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(0); got != "$0.00" {
		t.Errorf("FormatCurrency(0) = %q", got)
	}
	if got := FormatCurrency(45.5); got != "$45.50" {
		t.Errorf("FormatCurrency(45.5) = %q", got)
	}
}

func TestWeekdayTable(t *testing.T) {
	// 0 = Sunday per time.Weekday
	if weekdayNames[time.Sunday] != "Domingo" || weekdayNames[time.Saturday] != "Sábado" {
		t.Errorf("weekday table misindexed: %v", weekdayNames)
	}
}
