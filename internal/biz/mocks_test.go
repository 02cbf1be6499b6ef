package biz

import (
	"context"

	"KosBridge/internal/data"
	"KosBridge/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockKOSRepo is a mock implementation of KOSRepo for testing.
type MockKOSRepo struct {
	mock.Mock
}

func (m *MockKOSRepo) GetBillingStatus(ctx context.Context, phoneNumber string) (*model.BillingStatus, error) {
	args := m.Called(ctx, phoneNumber)
	if v := args.Get(0); v != nil {
		return v.(*model.BillingStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockKOSRepo) GetBillingInfo(ctx context.Context, phoneNumber, billingMonth string) (*model.BillingInfo, error) {
	args := m.Called(ctx, phoneNumber, billingMonth)
	if v := args.Get(0); v != nil {
		return v.(*model.BillingInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockKOSRepo) GetCustomerInfo(ctx context.Context, phoneNumber string) (*model.CustomerInfo, error) {
	args := m.Called(ctx, phoneNumber)
	if v := args.Get(0); v != nil {
		return v.(*model.CustomerInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockKOSRepo) GetProductInfo(ctx context.Context, productCode string) (*model.ProductInfo, error) {
	args := m.Called(ctx, productCode)
	if v := args.Get(0); v != nil {
		return v.(*model.ProductInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockKOSRepo) ChangeProduct(ctx context.Context, req *model.ProductChangeRequest) (*model.ProductChangeResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*model.ProductChangeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockBillingCacheRepo is a mock implementation of BillingCacheRepo for testing.
type MockBillingCacheRepo struct {
	mock.Mock
}

func (m *MockBillingCacheRepo) GetBilling(ctx context.Context, phoneNumber, month string) (*model.BillingInfo, error) {
	args := m.Called(ctx, phoneNumber, month)
	if v := args.Get(0); v != nil {
		return v.(*model.BillingInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBillingCacheRepo) SetBilling(ctx context.Context, info *model.BillingInfo) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

func (m *MockBillingCacheRepo) InvalidateBilling(ctx context.Context, phoneNumber, month string) error {
	args := m.Called(ctx, phoneNumber, month)
	return args.Error(0)
}

// MockChangeRequestRepo is a mock implementation of ChangeRequestRepo for testing.
type MockChangeRequestRepo struct {
	mock.Mock
}

func (m *MockChangeRequestRepo) Create(ctx context.Context, rec *data.ChangeRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockChangeRequestRepo) FindByRequestID(ctx context.Context, requestID string) (*data.ChangeRecord, error) {
	args := m.Called(ctx, requestID)
	if v := args.Get(0); v != nil {
		return v.(*data.ChangeRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChangeRequestRepo) FindRetryable(ctx context.Context, limit int) ([]*data.ChangeRecord, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]*data.ChangeRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChangeRequestRepo) ClaimForRetry(ctx context.Context, id int64, attempts int) (bool, error) {
	args := m.Called(ctx, id, attempts)
	return args.Bool(0), args.Error(1)
}

func (m *MockChangeRequestRepo) MarkCompleted(ctx context.Context, id int64, transactionID string) error {
	args := m.Called(ctx, id, transactionID)
	return args.Error(0)
}

func (m *MockChangeRequestRepo) MarkQueued(ctx context.Context, id int64, lastError string) error {
	args := m.Called(ctx, id, lastError)
	return args.Error(0)
}

func (m *MockChangeRequestRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	args := m.Called(ctx, id, lastError)
	return args.Error(0)
}

func (m *MockChangeRequestRepo) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
