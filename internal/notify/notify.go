// Package notify delivers issued vouchers to downstream consumers.
package notify

import (
	"context"
	"errors"

	"discounter/internal/model"
)

// Notifier is told about every successfully issued voucher.
type Notifier interface {
	// Notify is called once per voucher after it has been stored.
	Notify(ctx context.Context, voucher model.Voucher) error
}

// Func adapts an ordinary function to the Notifier interface.
type Func func(ctx context.Context, voucher model.Voucher) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, voucher model.Voucher) error {
	return f(ctx, voucher)
}

type multi []Notifier

// Multi fans a voucher out to every notifier and joins their errors.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

func (m multi) Notify(ctx context.Context, voucher model.Voucher) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, voucher); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
