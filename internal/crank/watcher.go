package crank

import (
	"context"
	"fmt"
	"log"

	"solana-predictor/internal/solana"
)

// Watcher triggers a prediction cycle whenever the oracle account changes,
// instead of waiting for the next cron tick. Notifications for a slot the
// crank has already processed are skipped.
type Watcher struct {
	ws     solana.WSClient
	crank  *Crank
	pubkey string
}

// NewWatcher creates a Watcher for one oracle account.
func NewWatcher(ws solana.WSClient, c *Crank, pubkey string) *Watcher {
	return &Watcher{ws: ws, crank: c, pubkey: pubkey}
}

// Run subscribes to the oracle account and cranks on every update until the
// context is canceled or the subscription channel closes.
func (w *Watcher) Run(ctx context.Context) error {
	notifs, err := w.ws.SubscribeAccount(ctx, w.pubkey)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", w.pubkey, err)
	}
	log.Printf("[INFO] watching oracle account %s", w.pubkey)

	var lastSlot int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-notifs:
			if !ok {
				return fmt.Errorf("subscription to %s closed", w.pubkey)
			}
			if notif.Slot <= lastSlot {
				continue
			}
			lastSlot = notif.Slot

			res, err := w.crank.RunCycle(ctx)
			if err != nil {
				log.Printf("[ERROR] cycle (slot %d notification): %v", notif.Slot, err)
				continue
			}
			log.Printf("[INFO] cycle complete: slot=%d wire=%d", res.Slot, res.Wire)
		}
	}
}
