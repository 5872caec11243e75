package repository

import (
	"context"
	"errors"
	"time"

	"discounter/internal/model"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get and Update when no value is stored under the key.
var ErrNotFound = errors.New("repository: not found")

// Repository is a key/value store for one entity type.
type Repository[E any] interface {
	// Persist stores value under key and returns the key used.
	// An empty key asks the repository to generate a fresh one.
	Persist(ctx context.Context, value E, key string) (string, error)

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (E, error)
}

// Updater is implemented by repositories that can read-modify-write a single
// record atomically with respect to other Update calls on the same key.
type Updater[E any] interface {
	// Update calls fn exactly once with the current value while the record is
	// held exclusively, then stores and returns fn's result. When fn fails
	// nothing is written and its error is returned unchanged.
	//
	// fn receives a context derived from ctx. Writes made through it by other
	// repositories of the same backend may join the update's transaction.
	Update(ctx context.Context, key string, fn func(ctx context.Context, current E) (E, error)) (E, error)
}

// CampaignRepository stores campaigns under storage-assigned identifiers.
type CampaignRepository interface {
	Repository[model.Campaign]
	Updater[model.Campaign]
}

// VoucherRepository stores vouchers under their codes.
type VoucherRepository = Repository[model.Voucher]

type options struct {
	newKey    func() string
	lockTTL   time.Duration
	lockRetry time.Duration
}

// Option configures a repository implementation.
type Option func(*options)

// WithKeyGenerator replaces the fresh key generator (uuid v4 by default).
func WithKeyGenerator(fn func() string) Option {
	return func(o *options) {
		o.newKey = fn
	}
}

// WithLockTTL bounds how long a Redis record lock may be held.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.lockTTL = ttl
	}
}

// WithLockRetry sets the delay between Redis lock attempts.
func WithLockRetry(d time.Duration) Option {
	return func(o *options) {
		o.lockRetry = d
	}
}

func buildOptions(opts []Option) options {
	o := options{
		newKey:    uuid.NewString,
		lockTTL:   5 * time.Second,
		lockRetry: 5 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
