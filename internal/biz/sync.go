package biz

import (
	"context"

	"KosBridge/internal/model"
	pkgerrors "KosBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// SyncUsecase consumes billing change notifications pushed by KOS. The
// affected cache entry is invalidated immediately so the next read observes
// the change; a fresh copy is then fetched eagerly to repopulate the cache.
type SyncUsecase struct {
	kos    KOSRepo
	cache  BillingCacheRepo
	logger *log.Helper
}

// NewSyncUsecase creates a new sync usecase.
func NewSyncUsecase(kos KOSRepo, cache BillingCacheRepo, logger log.Logger) *SyncUsecase {
	return &SyncUsecase{
		kos:    kos,
		cache:  cache,
		logger: log.NewHelper(logger),
	}
}

// ProcessBillingChange invalidates the cached bill named by the notification
// and eagerly refetches it. Invalidation failures are returned because a
// stale entry would mask the change; refetch failures are only logged since
// the next read repopulates the cache on demand.
func (uc *SyncUsecase) ProcessBillingChange(ctx context.Context, n *model.BillingChangeNotification) error {
	if n == nil {
		return pkgerrors.NewValidation("notification", "notification body is required")
	}
	if err := validatePhoneNumber(n.PhoneNumber); err != nil {
		return err
	}
	if err := validateBillingMonth(n.BillingMonth); err != nil {
		return err
	}

	if err := uc.cache.InvalidateBilling(ctx, n.PhoneNumber, n.BillingMonth); err != nil {
		return err
	}

	uc.logger.WithContext(ctx).Infow("msg", "billing change notification applied",
		"phone_number", n.PhoneNumber,
		"billing_month", n.BillingMonth,
		"change_type", n.ChangeType,
		"detail_count", len(n.Details))

	info, err := uc.kos.GetBillingInfo(ctx, n.PhoneNumber, n.BillingMonth)
	if err != nil {
		uc.logger.WithContext(ctx).Warnw("msg", "eager refetch after invalidation failed",
			"phone_number", n.PhoneNumber,
			"billing_month", n.BillingMonth,
			"error", err)
		return nil
	}
	if info == nil {
		return nil
	}

	backfillBilling(info, n.PhoneNumber, n.BillingMonth)
	if len(info.Details) > 0 {
		if err := uc.cache.SetBilling(ctx, info); err != nil {
			uc.logger.WithContext(ctx).Warnw("msg", "cache repopulation failed",
				"phone_number", n.PhoneNumber,
				"billing_month", n.BillingMonth,
				"error", err)
		}
	}
	return nil
}
