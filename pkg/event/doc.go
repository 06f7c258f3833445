// Package event provides a minimal in-process notification bus used to fan
// out state changes to interested collaborators.
//
// The bus is intentionally small: subscribers receive messages on a buffered
// channel, publishing never blocks, and messages are dropped for subscribers
// that cannot keep up. This matches the needs of UI-facing notifications
// (session invalidation, cart snapshot changes) where only the latest state
// matters and a slow listener must never stall the publisher.
//
// # Usage
//
//	bus := event.NewBus[string](8)
//	defer bus.Close()
//
//	sub := bus.Subscribe(ctx)
//	go func() {
//	    for msg := range sub.C() {
//	        handle(msg)
//	    }
//	}()
//
//	bus.Publish("something happened")
//
// Subscriptions are cleaned up automatically when the subscribing context is
// cancelled, or explicitly via Subscriber.Close.
package event
