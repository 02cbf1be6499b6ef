package biz

import (
	"context"

	"KosBridge/internal/data"
	"KosBridge/internal/model"
)

// KOSRepo defines the gateway interface to the KOS business system.
// Following Kratos v2 DDD architecture, interfaces are defined in biz layer.
// Implementation is in data layer (data.KOSRepo).
type KOSRepo interface {
	GetBillingStatus(ctx context.Context, phoneNumber string) (*model.BillingStatus, error)
	GetBillingInfo(ctx context.Context, phoneNumber, billingMonth string) (*model.BillingInfo, error)
	GetCustomerInfo(ctx context.Context, phoneNumber string) (*model.CustomerInfo, error)
	GetProductInfo(ctx context.Context, productCode string) (*model.ProductInfo, error)
	ChangeProduct(ctx context.Context, req *model.ProductChangeRequest) (*model.ProductChangeResult, error)
}

// BillingCacheRepo defines the billing read-through cache interface.
// Implementation is in data layer (data.BillingCacheRepo).
type BillingCacheRepo interface {
	GetBilling(ctx context.Context, phoneNumber, month string) (*model.BillingInfo, error)
	SetBilling(ctx context.Context, info *model.BillingInfo) error
	InvalidateBilling(ctx context.Context, phoneNumber, month string) error
}

// ChangeRequestRepo defines the product change request persistence interface.
// Implementation is in data layer (data.ChangeRequestRepo).
type ChangeRequestRepo interface {
	Create(ctx context.Context, rec *data.ChangeRecord) error
	FindByRequestID(ctx context.Context, requestID string) (*data.ChangeRecord, error)
	FindRetryable(ctx context.Context, limit int) ([]*data.ChangeRecord, error)
	ClaimForRetry(ctx context.Context, id int64, attempts int) (bool, error)
	MarkCompleted(ctx context.Context, id int64, transactionID string) error
	MarkQueued(ctx context.Context, id int64, lastError string) error
	MarkFailed(ctx context.Context, id int64, lastError string) error
	CountPending(ctx context.Context) (int64, error)
}
