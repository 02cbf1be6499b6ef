package biz

import (
	"context"

	"KosBridge/internal/data"
	"KosBridge/internal/model"
	pkgerrors "KosBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ProductUsecase implements product change business logic. A change that
// cannot reach KOS is not failed: the request record is queued and the retry
// worker completes it asynchronously.
type ProductUsecase struct {
	kos    KOSRepo
	repo   ChangeRequestRepo
	logger *log.Helper
}

// NewProductUsecase creates a new product usecase.
func NewProductUsecase(kos KOSRepo, repo ChangeRequestRepo, logger log.Logger) *ProductUsecase {
	return &ProductUsecase{
		kos:    kos,
		repo:   repo,
		logger: log.NewHelper(logger),
	}
}

// CheckChangeAvailability reports whether a line may move to the given
// product: the line must be active, the target product must exist in the
// catalog, and it must differ from the current product.
func (uc *ProductUsecase) CheckChangeAvailability(ctx context.Context, phoneNumber, productCode string) (*model.ProductCheckResult, error) {
	if err := validatePhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	if err := validateProductCode(productCode); err != nil {
		return nil, err
	}

	customer, err := uc.kos.GetCustomerInfo(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}

	if customer.CurrentProduct != nil && customer.CurrentProduct.ProductCode == productCode {
		return &model.ProductCheckResult{
			Available:      false,
			Code:           pkgerrors.CodeSameProduct,
			Message:        "the line is already on this product",
			CurrentProduct: customer.CurrentProduct,
			TargetProduct:  customer.CurrentProduct,
		}, nil
	}

	if customer.Status != model.LineStatusActive {
		return &model.ProductCheckResult{
			Available:      false,
			Code:           pkgerrors.CodeLineNotActive,
			Message:        "only active lines may change products",
			CurrentProduct: customer.CurrentProduct,
		}, nil
	}

	target, err := uc.kos.GetProductInfo(ctx, productCode)
	if err != nil {
		return nil, err
	}
	if target.Unknown() {
		return &model.ProductCheckResult{
			Available:      false,
			Code:           pkgerrors.CodeProductNotFound,
			Message:        "no such product in the catalog",
			CurrentProduct: customer.CurrentProduct,
		}, nil
	}

	return &model.ProductCheckResult{
		Available:      true,
		Message:        "product change is available",
		CurrentProduct: customer.CurrentProduct,
		TargetProduct:  target,
	}, nil
}

// ChangeProduct moves a line to another product. The request is recorded
// before the KOS call; when KOS cannot be reached (transport failure or open
// circuit) the record is queued and the returned result carries the request
// id in place of a transaction id so the caller can poll its status.
func (uc *ProductUsecase) ChangeProduct(ctx context.Context, phoneNumber, productCode, changeReason string) (*model.ProductChangeResult, error) {
	check, err := uc.CheckChangeAvailability(ctx, phoneNumber, productCode)
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, pkgerrors.NewPrecondition(check.Code, check.Message)
	}

	rec := &data.ChangeRecord{
		RequestID:    uuid.NewString(),
		PhoneNumber:  phoneNumber,
		ProductCode:  productCode,
		ChangeReason: changeReason,
		Status:       data.ChangeStatusRequested,
	}
	if err := uc.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	result, err := uc.kos.ChangeProduct(ctx, &model.ProductChangeRequest{
		RequestID:    rec.RequestID,
		PhoneNumber:  phoneNumber,
		ProductCode:  productCode,
		ChangeReason: changeReason,
	})
	if err != nil {
		uc.logger.WithContext(ctx).Warnw("msg", "product change deferred to retry queue",
			"request_id", rec.RequestID,
			"phone_number", phoneNumber,
			"product_code", productCode,
			"error", err)
		if qerr := uc.repo.MarkQueued(ctx, rec.ID, err.Error()); qerr != nil {
			return nil, qerr
		}
		return &model.ProductChangeResult{
			Success:       false,
			Message:       "request queued, it will be processed shortly",
			TransactionID: rec.RequestID,
		}, nil
	}

	if !result.Success {
		if ferr := uc.repo.MarkFailed(ctx, rec.ID, result.Message); ferr != nil {
			return nil, ferr
		}
		return result, nil
	}

	if cerr := uc.repo.MarkCompleted(ctx, rec.ID, result.TransactionID); cerr != nil {
		return nil, cerr
	}
	return result, nil
}

// GetChangeStatus returns the stored change request for a request id.
func (uc *ProductUsecase) GetChangeStatus(ctx context.Context, requestID string) (*data.ChangeRecord, error) {
	if requestID == "" {
		return nil, pkgerrors.NewValidation("requestId", "request id is required")
	}
	return uc.repo.FindByRequestID(ctx, requestID)
}
