package service

import (
	"context"
	stdhttp "net/http"
	"time"

	"KosBridge/internal/biz"
	"KosBridge/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// ProductService serves product change availability checks, change requests,
// and change request status reads.
type ProductService struct {
	uc     *biz.ProductUsecase
	logger *log.Helper
}

// NewProductService creates a new ProductService instance.
func NewProductService(uc *biz.ProductUsecase, logger log.Logger) *ProductService {
	return &ProductService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// CheckChange handles GET /api/products/check.
func (s *ProductService) CheckChange(ctx http.Context) error {
	phoneNumber := ctx.Query().Get("phoneNumber")
	productCode := ctx.Query().Get("productCode")

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		res, err := s.uc.CheckChangeAvailability(c, phoneNumber, productCode)
		if err != nil {
			return nil, toAPIError(err)
		}
		return res, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(stdhttp.StatusOK, out)
}

// changeProductRequest is the JSON body of a product change request.
type changeProductRequest struct {
	PhoneNumber  string `json:"phoneNumber"`
	ProductCode  string `json:"productCode"`
	ChangeReason string `json:"changeReason"`
}

// ChangeProduct handles POST /api/products/change.
func (s *ProductService) ChangeProduct(ctx http.Context) error {
	var req changeProductRequest
	if err := ctx.Bind(&req); err != nil {
		return toAPIError(err)
	}

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		res, err := s.uc.ChangeProduct(c, req.PhoneNumber, req.ProductCode, req.ChangeReason)
		if err != nil {
			return nil, toAPIError(err)
		}
		return res, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(stdhttp.StatusOK, out)
}

// changeStatusResponse is the JSON view of a stored change request.
type changeStatusResponse struct {
	RequestID     string    `json:"requestId"`
	PhoneNumber   string    `json:"phoneNumber"`
	ProductCode   string    `json:"productCode"`
	ChangeReason  string    `json:"changeReason,omitempty"`
	Status        string    `json:"status"`
	Attempts      int       `json:"attempts"`
	TransactionID string    `json:"transactionId,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newChangeStatusResponse(rec *data.ChangeRecord) *changeStatusResponse {
	return &changeStatusResponse{
		RequestID:     rec.RequestID,
		PhoneNumber:   rec.PhoneNumber,
		ProductCode:   rec.ProductCode,
		ChangeReason:  rec.ChangeReason,
		Status:        string(rec.Status),
		Attempts:      rec.Attempts,
		TransactionID: rec.TransactionID,
		LastError:     rec.LastError,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

// GetChangeStatus handles GET /api/products/change/{requestId}.
func (s *ProductService) GetChangeStatus(ctx http.Context) error {
	requestID := ctx.Vars().Get("requestId")

	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		rec, err := s.uc.GetChangeStatus(c, requestID)
		if err != nil {
			return nil, toAPIError(err)
		}
		return newChangeStatusResponse(rec), nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(stdhttp.StatusOK, out)
}
