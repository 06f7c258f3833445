// Package cart maintains the client-side view of the shopping cart with
// optimistic mutations and guaranteed rollback.
//
// The Manager owns a Snapshot that mirrors the server-side cart. Every
// mutation applies its change locally first so the UI updates instantly,
// then confirms it with the backend through the authenticated transport. A
// failed confirmation restores the exact pre-mutation snapshot; a successful
// one reconciles local state with the server's answer (server-assigned line
// IDs and prices win). Totals are recomputed after every change and are
// never stored stale.
//
//	mgr := cart.NewManager(cfg, client, sess)
//	defer mgr.Close()
//
//	if err := mgr.AddItem(ctx, "P1", 2, ""); err != nil {
//		// snapshot already rolled back; show err to the user
//	}
//
// Collaborators read state through Snapshot (a deep copy), the derived
// getters (ItemCount, FreeShippingProgress, AmountToFreeShipping), or a
// Subscribe channel that receives the snapshot after every change,
// including rollbacks.
//
// # Consistency model
//
// Mutations are not queued or serialized against each other: when two
// mutations race, the later-settling server response determines the
// authoritative state. Mutations on different lines do not interfere. This
// best-effort model is deliberate; per-line serialization would add latency
// for a conflict the UI makes practically impossible.
//
// # Guest carts
//
// While the session is anonymous the cart is persisted through a Store
// (in-memory or Redis) keyed by the guest session id. After login,
// MergeGuestCart replays the local lines into the server cart and discards
// the local copy.
package cart
