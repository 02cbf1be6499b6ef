package data

import (
	"context"
	"errors"
	"time"

	"KosBridge/internal/conf"
	"KosBridge/internal/metrics"
	"KosBridge/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// BillingCacheRepo implements biz.BillingCacheRepo interface.
// It stores billing snapshots in Redis keyed by phone number and month.
// Cache failures never propagate as hard errors: a broken cache degrades
// to a miss on read and a no-op on write.
type BillingCacheRepo struct {
	cache   CacheClient
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *log.Helper
}

// NewBillingCacheRepo creates a new billing cache repository. The cache
// client comes through the Data aggregate so degraded startup (nil Redis)
// is decided in one place.
func NewBillingCacheRepo(d *Data, c *conf.Cache, m *metrics.Metrics, logger log.Logger) *BillingCacheRepo {
	ttl := TTLBillingDefault
	if c != nil && c.BillingTtl != nil && c.BillingTtl.AsDuration() > 0 {
		ttl = c.BillingTtl.AsDuration()
	}
	return &BillingCacheRepo{
		cache:   d.GetCache(),
		ttl:     ttl,
		metrics: m,
		logger:  log.NewHelper(logger),
	}
}

// GetBilling looks up a cached billing snapshot.
// Returns (nil, nil) on a miss, including when the cache is unreachable.
func (r *BillingCacheRepo) GetBilling(ctx context.Context, phoneNumber, month string) (*model.BillingInfo, error) {
	key := BuildCacheKey(CacheKeyBilling, phoneNumber, month)

	var info model.BillingInfo
	err := r.cache.Get(ctx, key, &info)
	if err != nil {
		if !errors.Is(err, ErrCacheNotFound) {
			// degrade to a miss, the caller falls through to the upstream
			r.logger.Warnw("msg", "billing cache read failed",
				"phone_number", phoneNumber,
				"billing_month", month,
				"error", err.Error())
		}
		r.metrics.RecordCacheMiss(CacheKeyBilling)
		return nil, nil
	}

	r.metrics.RecordCacheHit(CacheKeyBilling)
	return &info, nil
}

// SetBilling stores a billing snapshot with the configured TTL.
func (r *BillingCacheRepo) SetBilling(ctx context.Context, info *model.BillingInfo) error {
	key := BuildCacheKey(CacheKeyBilling, info.PhoneNumber, info.BillingMonth)

	if err := r.cache.Set(ctx, key, info, r.ttl); err != nil {
		r.logger.Warnw("msg", "billing cache write failed",
			"phone_number", info.PhoneNumber,
			"billing_month", info.BillingMonth,
			"error", err.Error())
		return nil
	}

	r.logger.Debugw("msg", "billing cache updated",
		"phone_number", info.PhoneNumber,
		"billing_month", info.BillingMonth,
		"ttl", r.ttl.String())
	return nil
}

// InvalidateBilling drops a cached billing snapshot. Unlike reads and
// writes the error is surfaced: a failed delete leaves a stale entry that
// would mask the remote change until TTL expiry.
func (r *BillingCacheRepo) InvalidateBilling(ctx context.Context, phoneNumber, month string) error {
	key := BuildCacheKey(CacheKeyBilling, phoneNumber, month)

	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warnw("msg", "billing cache invalidation failed",
			"phone_number", phoneNumber,
			"billing_month", month,
			"error", err.Error())
		return err
	}
	return nil
}
