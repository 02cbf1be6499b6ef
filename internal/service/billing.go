package service

import (
	"context"
	stdhttp "net/http"

	"KosBridge/internal/biz"
	"KosBridge/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// BillingService serves billing lookups and the inbound billing change
// notification push.
type BillingService struct {
	billing *biz.BillingUsecase
	sync    *biz.SyncUsecase
	logger  *log.Helper
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(billing *biz.BillingUsecase, sync *biz.SyncUsecase, logger log.Logger) *BillingService {
	return &BillingService{
		billing: billing,
		sync:    sync,
		logger:  log.NewHelper(logger),
	}
}

// GetCurrentBilling handles GET /api/billings/current.
func (s *BillingService) GetCurrentBilling(ctx http.Context) error {
	phoneNumber := ctx.Query().Get("phoneNumber")

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		info, err := s.billing.GetCurrentBilling(c, phoneNumber)
		if err != nil {
			return nil, toAPIError(err)
		}
		return info, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(stdhttp.StatusOK, out)
}

// GetBilling handles GET /api/billings.
func (s *BillingService) GetBilling(ctx http.Context) error {
	phoneNumber := ctx.Query().Get("phoneNumber")
	billingMonth := ctx.Query().Get("billingMonth")

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		info, err := s.billing.GetBilling(c, phoneNumber, billingMonth)
		if err != nil {
			return nil, toAPIError(err)
		}
		return info, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(stdhttp.StatusOK, out)
}

// notificationAck is the response body for a consumed change notification.
type notificationAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleBillingChange handles POST /api/notifications/billing-change.
func (s *BillingService) HandleBillingChange(ctx http.Context) error {
	var n model.BillingChangeNotification
	if err := ctx.Bind(&n); err != nil {
		return toAPIError(err)
	}

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		if err := s.sync.ProcessBillingChange(c, &n); err != nil {
			return nil, toAPIError(err)
		}
		return &notificationAck{Success: true, Message: "notification processed"}, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(stdhttp.StatusOK, out)
}
