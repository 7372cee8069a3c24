// Package events provides the in-process publish/subscribe hub that connects
// the state container, the sync scheduler and the dashboard.
//
// Channels are plain strings created on first Subscribe and dropped when the
// last subscriber leaves. Publish is synchronous: every handler registered at
// the moment of the call runs on the publisher's goroutine, in subscription
// order, each behind its own recover so one faulty handler cannot starve its
// siblings or crash the publisher.
//
//	bus := events.NewBus(nil)
//	stop := bus.Subscribe(events.SyncSuccess, func(p any) {
//		log.Printf("synced at %v", p)
//	})
//	defer stop()
//	bus.Publish(events.SyncSuccess, time.Now())
package events
