package cart

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrymomot/storekit/pkg/event"
	"github.com/dmitrymomot/storekit/pkg/session"
	"github.com/dmitrymomot/storekit/pkg/transport"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	VariantID string `json:"variantId,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

// cartEnvelope is the server's success response wrapper for cart endpoints.
type cartEnvelope struct {
	Data struct {
		Cart *Snapshot `json:"cart"`
	} `json:"data"`
}

// Manager is the exclusive owner of the cart snapshot. All methods are safe
// for concurrent use; reads always observe a totals-consistent snapshot.
type Manager struct {
	cfg    Config
	client *transport.Client
	sess   *session.Session
	store  Store
	bus    *event.Bus[Snapshot]
	log    *slog.Logger

	mu   sync.Mutex
	snap Snapshot
}

// NewManager creates a cart manager backed by the given transport and
// session. The cart starts empty; call Load to hydrate it.
func NewManager(cfg Config, client *transport.Client, sess *session.Session, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		client: client,
		sess:   sess,
		store:  NewMemoryStore(),
		bus:    event.NewBus[Snapshot](8),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.snap.recompute(m.cfg)
	return m
}

// Snapshot returns a deep copy of the current cart state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}

// ItemCount is the total quantity across all lines.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.ItemCount()
}

// FreeShippingProgress is the percentage (0-100) of the free shipping
// threshold covered by the current subtotal.
func (m *Manager) FreeShippingProgress() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.FreeShippingThresholdCents <= 0 {
		return 100
	}
	p := m.snap.SubtotalCents * 100 / m.cfg.FreeShippingThresholdCents
	return int(min(p, 100))
}

// AmountToFreeShipping is the remaining subtotal in cents needed to reach
// free shipping, floored at zero.
func (m *Manager) AmountToFreeShipping() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return max(m.cfg.FreeShippingThresholdCents-m.snap.SubtotalCents, 0)
}

// Subscribe registers for snapshot updates. The manager publishes the full
// snapshot after every change, rollbacks included, so listeners can simply
// re-render the latest value.
func (m *Manager) Subscribe(ctx context.Context) *event.Subscriber[Snapshot] {
	return m.bus.Subscribe(ctx)
}

// Close releases the snapshot event bus.
func (m *Manager) Close() {
	m.bus.Close()
}

// Load hydrates the cart: from the server for an authenticated session,
// from the guest store otherwise. A guest with no stored cart starts empty.
func (m *Manager) Load(ctx context.Context) error {
	if m.sess.Authenticated() {
		resp, err := m.client.Get(ctx, "/cart")
		if err != nil {
			return err
		}
		m.reconcile(ctx, resp)
		return nil
	}

	snap, err := m.store.Load(ctx, m.sess.GuestID())
	if errors.Is(err, ErrSnapshotNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.snap = snap
	m.snap.recompute(m.cfg)
	current := m.snap.Clone()
	m.mu.Unlock()

	m.bus.Publish(current)
	return nil
}

// MergeGuestCart replays the locally held lines into the server cart after
// login, reloads the authoritative cart, and discards the guest copy.
func (m *Manager) MergeGuestCart(ctx context.Context) error {
	m.mu.Lock()
	lines := make([]Line, len(m.snap.Items))
	copy(lines, m.snap.Items)
	m.mu.Unlock()

	for _, line := range lines {
		_, err := m.client.Post(ctx, "/cart/items", addItemRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			VariantID: line.VariantID,
		})
		if err != nil {
			return err
		}
	}

	resp, err := m.client.Get(ctx, "/cart")
	if err != nil {
		return err
	}
	m.reconcile(ctx, resp)

	return m.store.Delete(ctx, m.sess.GuestID())
}

// AddItem appends a new line, or increments the quantity of an existing
// line for the same product and variant. The change shows immediately and
// is rolled back if the server rejects it.
func (m *Manager) AddItem(ctx context.Context, productID string, quantity int, variantID string) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	m.mu.Lock()
	previous := m.snap.Clone()
	if i := m.snap.sameProductIndex(productID, variantID); i >= 0 {
		m.snap.Items[i].Quantity += quantity
	} else {
		m.snap.Items = append(m.snap.Items, Line{
			ID:        localLineID(),
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		})
	}
	m.snap.recompute(m.cfg)
	current := m.snap.Clone()
	m.mu.Unlock()
	m.bus.Publish(current)

	resp, err := m.client.Post(ctx, "/cart/items", addItemRequest{
		ProductID: productID,
		Quantity:  quantity,
		VariantID: variantID,
	})
	if err != nil {
		m.rollback(previous, "add_item", err)
		return err
	}
	m.reconcile(ctx, resp)
	return nil
}

// UpdateItem changes a line's quantity. Requests beyond the line's maximum
// are rejected locally before any network call.
func (m *Manager) UpdateItem(ctx context.Context, lineID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	m.mu.Lock()
	i := m.snap.lineIndex(lineID)
	if i < 0 {
		m.mu.Unlock()
		return ErrLineNotFound
	}
	if maxQty := m.snap.Items[i].MaxQuantity; maxQty > 0 && quantity > maxQty {
		m.mu.Unlock()
		return ErrQuantityExceedsMax
	}
	previous := m.snap.Clone()
	m.snap.Items[i].Quantity = quantity
	m.snap.recompute(m.cfg)
	current := m.snap.Clone()
	m.mu.Unlock()
	m.bus.Publish(current)

	resp, err := m.client.Patch(ctx, "/cart/items/"+url.PathEscape(lineID), updateItemRequest{Quantity: quantity})
	if err != nil {
		m.rollback(previous, "update_item", err)
		return err
	}
	m.reconcile(ctx, resp)
	return nil
}

// RemoveItem deletes a line. On failure the line reappears at its original
// position.
func (m *Manager) RemoveItem(ctx context.Context, lineID string) error {
	m.mu.Lock()
	i := m.snap.lineIndex(lineID)
	if i < 0 {
		m.mu.Unlock()
		return ErrLineNotFound
	}
	previous := m.snap.Clone()
	m.snap.Items = append(m.snap.Items[:i], m.snap.Items[i+1:]...)
	m.snap.recompute(m.cfg)
	current := m.snap.Clone()
	m.mu.Unlock()
	m.bus.Publish(current)

	resp, err := m.client.Delete(ctx, "/cart/items/"+url.PathEscape(lineID))
	if err != nil {
		m.rollback(previous, "remove_item", err)
		return err
	}
	m.reconcile(ctx, resp)
	return nil
}

// ApplyCoupon validates and applies a discount code. Unlike line mutations
// the change is not optimistic: the discount percentage is only known once
// the server accepts the code, so a rejection leaves the snapshot untouched.
func (m *Manager) ApplyCoupon(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ErrEmptyCouponCode
	}

	resp, err := m.client.Post(ctx, "/cart/coupon", couponRequest{Code: code})
	if err != nil {
		return err
	}
	m.reconcile(ctx, resp)
	return nil
}

// RemoveCoupon clears the applied coupon, restoring it if the server call
// fails.
func (m *Manager) RemoveCoupon(ctx context.Context) error {
	m.mu.Lock()
	previous := m.snap.Clone()
	m.snap.Coupon = nil
	m.snap.recompute(m.cfg)
	current := m.snap.Clone()
	m.mu.Unlock()
	m.bus.Publish(current)

	resp, err := m.client.Delete(ctx, "/cart/coupon")
	if err != nil {
		m.rollback(previous, "remove_coupon", err)
		return err
	}
	m.reconcile(ctx, resp)
	return nil
}

// Clear empties the cart, restoring the full snapshot on failure.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	previous := m.snap.Clone()
	m.snap = Snapshot{}
	m.snap.recompute(m.cfg)
	current := m.snap.Clone()
	m.mu.Unlock()
	m.bus.Publish(current)

	resp, err := m.client.Delete(ctx, "/cart")
	if err != nil {
		m.rollback(previous, "clear", err)
		return err
	}
	m.reconcile(ctx, resp)
	return nil
}

// rollback restores the pre-mutation snapshot wholesale after a failed
// confirmation, then republishes so the UI re-renders the restored state.
func (m *Manager) rollback(previous Snapshot, op string, cause error) {
	m.mu.Lock()
	m.snap = previous
	current := m.snap.Clone()
	m.mu.Unlock()

	m.bus.Publish(current)
	m.log.Warn("cart mutation rolled back",
		slog.String("op", op),
		slog.String("error", cause.Error()),
	)
}

// reconcile adopts the server's cart from a success response when one is
// included. Server-assigned line IDs and prices replace optimistic values;
// totals are rederived locally so they are never stale. When two mutations
// race, the later reconcile wins, which is the documented best-effort model.
func (m *Manager) reconcile(ctx context.Context, resp *transport.Response) {
	var envelope cartEnvelope
	if err := resp.Decode(&envelope); err != nil || envelope.Data.Cart == nil {
		m.persistGuest(ctx)
		return
	}
	server := *envelope.Data.Cart

	m.mu.Lock()
	m.snap.Items = server.Items
	m.snap.Coupon = server.Coupon
	m.snap.recompute(m.cfg)
	current := m.snap.Clone()
	m.mu.Unlock()

	m.bus.Publish(current)
	m.persistGuest(ctx)
}

// persistGuest mirrors the snapshot into the guest store while anonymous.
// Persistence failures are logged, never surfaced: the in-memory cart stays
// correct regardless.
func (m *Manager) persistGuest(ctx context.Context) {
	if m.sess.Authenticated() {
		return
	}
	if err := m.store.Save(ctx, m.sess.GuestID(), m.Snapshot()); err != nil {
		m.log.Warn("failed to persist guest cart", slog.String("error", err.Error()))
	}
}
