package biz

import (
	"context"
	"time"

	"KosBridge/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// BillingUsecase implements billing lookup business logic. Lookups are
// read-through cached and degrade to a zero-value bill on any upstream
// failure; a billing read never surfaces a server error to its caller.
type BillingUsecase struct {
	kos    KOSRepo
	cache  BillingCacheRepo
	logger *log.Helper
	now    func() time.Time
}

// NewBillingUsecase creates a new billing usecase.
func NewBillingUsecase(kos KOSRepo, cache BillingCacheRepo, logger log.Logger) *BillingUsecase {
	return &BillingUsecase{
		kos:    kos,
		cache:  cache,
		logger: log.NewHelper(logger),
		now:    time.Now,
	}
}

// GetCurrentBilling returns the most recent bill for a line. KOS is asked
// which billing month is current and whether its data has been generated
// yet: if so that month is served, otherwise the month before it. When the
// status check itself fails the lookup degrades to an empty bill for the
// local clock month.
func (uc *BillingUsecase) GetCurrentBilling(ctx context.Context, phoneNumber string) (*model.BillingInfo, error) {
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}

	currentMonth := uc.now().Format("200601")

	status, err := uc.kos.GetBillingStatus(ctx, phoneNumber)
	if err != nil {
		uc.logger.WithContext(ctx).Warnw("msg", "billing status check failed, serving empty bill",
			"phone_number", phoneNumber,
			"error", err)
		return model.EmptyBillingInfo(phoneNumber, currentMonth), nil
	}
	if status == nil {
		return model.EmptyBillingInfo(phoneNumber, currentMonth), nil
	}

	// KOS is the authority on which month is "current"; the local clock is
	// only a fallback when the status response omits the month.
	base := status.CurrentBillingMonth
	if base == "" {
		base = currentMonth
	}

	targetMonth := base
	if !status.BillingGenerated {
		prev, err := previousMonth(base)
		if err != nil {
			uc.logger.WithContext(ctx).Warnw("msg", "invalid billing month from status, serving empty bill",
				"phone_number", phoneNumber,
				"billing_month", base)
			return model.EmptyBillingInfo(phoneNumber, currentMonth), nil
		}
		targetMonth = prev
	}

	return uc.getBillingInfo(ctx, phoneNumber, targetMonth), nil
}

// GetBilling returns the bill for a line and a specific month.
func (uc *BillingUsecase) GetBilling(ctx context.Context, phoneNumber, billingMonth string) (*model.BillingInfo, error) {
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	if err := validateBillingMonth(billingMonth); err != nil {
		return nil, err
	}
	return uc.getBillingInfo(ctx, phoneNumber, billingMonth), nil
}

// getBillingInfo is the read-through path: cache first, then the guarded KOS
// fetch. Identifying fields the upstream omitted are backfilled from the
// request on both paths. Fetch failures degrade to an empty bill.
func (uc *BillingUsecase) getBillingInfo(ctx context.Context, phoneNumber, billingMonth string) *model.BillingInfo {
	cached, err := uc.cache.GetBilling(ctx, phoneNumber, billingMonth)
	if err == nil && cached != nil {
		backfillBilling(cached, phoneNumber, billingMonth)
		return cached
	}

	info, err := uc.kos.GetBillingInfo(ctx, phoneNumber, billingMonth)
	if err != nil {
		uc.logger.WithContext(ctx).Warnw("msg", "billing fetch failed, serving empty bill",
			"phone_number", phoneNumber,
			"billing_month", billingMonth,
			"error", err)
		return model.EmptyBillingInfo(phoneNumber, billingMonth)
	}
	if info == nil {
		return model.EmptyBillingInfo(phoneNumber, billingMonth)
	}

	backfillBilling(info, phoneNumber, billingMonth)

	// Only bills with detail lines are worth caching; an empty bill is
	// indistinguishable from a degraded fetch.
	if len(info.Details) > 0 {
		if err := uc.cache.SetBilling(ctx, info); err != nil {
			uc.logger.WithContext(ctx).Warnw("msg", "billing cache store failed",
				"phone_number", phoneNumber,
				"billing_month", billingMonth,
				"error", err)
		}
	}

	return info
}

// backfillBilling fills identifying fields the external response omitted.
func backfillBilling(info *model.BillingInfo, phoneNumber, billingMonth string) {
	if info.PhoneNumber == "" {
		info.PhoneNumber = phoneNumber
	}
	if info.BillingMonth == "" {
		info.BillingMonth = billingMonth
	}
	if info.Details == nil {
		info.Details = []model.FeeItem{}
	}
	if info.Discounts == nil {
		info.Discounts = []model.Discount{}
	}
}

// previousMonth computes the month before a YYYYMM month.
func previousMonth(billingMonth string) (string, error) {
	t, err := time.Parse("200601", billingMonth)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, -1, 0).Format("200601"), nil
}
