// Package notify delivers purchase notifications over e-mail and Telegram.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/prostore/internal/domain"
)

// Fanout sends a receipt through every configured channel. A failing channel does not stop the others.
type Fanout []domain.Notifier

func (f Fanout) PurchaseReceipt(ctx context.Context, o *domain.Order) error {
	var errs []error
	for _, n := range f {
		if err := n.PurchaseReceipt(ctx, o); err != nil {
			log.Warn().Err(err).Str("order", o.ID.String()).Msg("notify failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop is used when no channel is configured.
type Nop struct{}

func (Nop) PurchaseReceipt(context.Context, *domain.Order) error { return nil }
