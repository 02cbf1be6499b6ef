package data

import (
	"context"
	"errors"
	"time"

	"KosBridge/internal/conf"
	"KosBridge/internal/metrics"
	"KosBridge/internal/model"
	"KosBridge/pkg/breaker"
	pkgerrors "KosBridge/pkg/errors"
	"KosBridge/pkg/soap"

	"github.com/go-kratos/kratos/v2/log"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Breaker names. Lookups and changes fail independently, so each class
// of call gets its own circuit.
const (
	BreakerBillingLookup = "billing-lookup"
	BreakerProductChange = "product-change"
)

const (
	defaultProductCacheSize = 256
	defaultProductCacheTTL  = 10 * time.Minute
)

// KOSRepo implements biz.KOSRepo interface. It is the typed gateway to
// the provisioning system: SOAP encoding/decoding, circuit breaking and
// a short-lived product info cache sit here, so callers above see only
// domain types and the error taxonomy.
type KOSRepo struct {
	client        KOSClient
	codec         *soap.Codec
	lookupBreaker *breaker.Breaker
	changeBreaker *breaker.Breaker
	productCache  *lru.LRU[string, *model.ProductInfo]
	metrics       *metrics.Metrics
	logger        *log.Helper
}

// NewKOSRepo creates the provisioning system gateway.
func NewKOSRepo(client KOSClient, kosConf *conf.Kos, brConf *conf.Breaker, m *metrics.Metrics, logger log.Logger) *KOSRepo {
	helper := log.NewHelper(logger)

	cfg := breakerConfig(brConf, m, helper)

	cacheSize := defaultProductCacheSize
	if kosConf != nil && kosConf.ProductCacheSize > 0 {
		cacheSize = kosConf.ProductCacheSize
	}
	cacheTTL := defaultProductCacheTTL
	if kosConf != nil && kosConf.ProductCacheTtl != nil && kosConf.ProductCacheTtl.AsDuration() > 0 {
		cacheTTL = kosConf.ProductCacheTtl.AsDuration()
	}

	return &KOSRepo{
		client:        client,
		codec:         soap.NewCodec(),
		lookupBreaker: breaker.New(BreakerBillingLookup, cfg),
		changeBreaker: breaker.New(BreakerProductChange, cfg),
		productCache:  lru.NewLRU[string, *model.ProductInfo](cacheSize, nil, cacheTTL),
		metrics:       m,
		logger:        helper,
	}
}

// breakerConfig maps breaker configuration onto the breaker package,
// wiring state transitions into metrics and logs. Malformed responses
// are a contract problem, not an availability problem, so decode errors
// do not count as breaker failures.
func breakerConfig(c *conf.Breaker, m *metrics.Metrics, helper *log.Helper) breaker.Config {
	cfg := breaker.Config{
		IsFailure: func(err error) bool {
			return !pkgerrors.IsDecode(err)
		},
		OnStateChange: func(name string, from, to breaker.State) {
			m.RecordBreakerTransition(name, from.String(), to.String())
			helper.Warnw("msg", "circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
				"type", "breaker")
		},
	}
	if c != nil {
		cfg.SlidingWindowSize = c.SlidingWindowSize
		cfg.MinimumCalls = c.MinimumCalls
		cfg.FailureRateThreshold = c.FailureRateThreshold
		if c.WaitDurationOpen != nil {
			cfg.WaitDurationOpen = c.WaitDurationOpen.AsDuration()
		}
		cfg.PermittedHalfOpenCalls = c.PermittedHalfOpenCalls
	}
	return cfg
}

// GetBillingStatus fetches the billing generation status for a line.
func (r *KOSRepo) GetBillingStatus(ctx context.Context, phoneNumber string) (*model.BillingStatus, error) {
	req := &model.BillingStatusRequest{PhoneNumber: phoneNumber}
	var status model.BillingStatus
	if err := r.call(ctx, r.lookupBreaker, EndpointBillingStatus, req, &status); err != nil {
		return nil, err
	}
	if status.PhoneNumber == "" {
		status.PhoneNumber = phoneNumber
	}
	return &status, nil
}

// GetBillingInfo fetches the billing detail for a line and month.
func (r *KOSRepo) GetBillingInfo(ctx context.Context, phoneNumber, billingMonth string) (*model.BillingInfo, error) {
	req := &model.BillingInfoRequest{PhoneNumber: phoneNumber, BillingMonth: billingMonth}
	var info model.BillingInfo
	if err := r.call(ctx, r.lookupBreaker, EndpointBillingInfo, req, &info); err != nil {
		return nil, err
	}

	// upstream responses omit the echo fields, backfill from the request
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
	return &info, nil
}

// GetCustomerInfo fetches line status and current product for a line.
func (r *KOSRepo) GetCustomerInfo(ctx context.Context, phoneNumber string) (*model.CustomerInfo, error) {
	req := &model.CustomerInfoRequest{PhoneNumber: phoneNumber}
	var info model.CustomerInfo
	if err := r.call(ctx, r.lookupBreaker, EndpointCustomerInfo, req, &info); err != nil {
		return nil, err
	}
	if info.PhoneNumber == "" {
		info.PhoneNumber = phoneNumber
	}
	return &info, nil
}

// GetProductInfo fetches product details, served from a short-lived
// local cache when possible. Unknown products come back as a default
// placeholder rather than an error.
func (r *KOSRepo) GetProductInfo(ctx context.Context, productCode string) (*model.ProductInfo, error) {
	if cached, ok := r.productCache.Get(productCode); ok {
		r.metrics.RecordCacheHit("product-info")
		return cached, nil
	}
	r.metrics.RecordCacheMiss("product-info")

	req := &model.ProductInfoRequest{ProductCode: productCode}
	var info model.ProductInfo
	if err := r.call(ctx, r.lookupBreaker, EndpointProductInfo, req, &info); err != nil {
		return nil, err
	}

	if info.ProductCode == "" {
		info.ProductCode = productCode
	}
	if info.ProductName == "" {
		info = *model.DefaultProductInfo(productCode)
	}

	result := &info
	r.productCache.Add(productCode, result)
	return result, nil
}

// ChangeProduct submits a product change. The request ID rides along as
// the idempotency token, so resubmitting after a failure is safe.
func (r *KOSRepo) ChangeProduct(ctx context.Context, req *model.ProductChangeRequest) (*model.ProductChangeResult, error) {
	var result model.ProductChangeResult
	if err := r.call(ctx, r.changeBreaker, EndpointProductChange, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// call runs one encode, guarded send and decode cycle against an
// endpoint. Only the network exchange runs under the breaker.
func (r *KOSRepo) call(ctx context.Context, br *breaker.Breaker, endpoint string, request, response interface{}) error {
	payload, err := r.codec.Encode(request)
	if err != nil {
		return pkgerrors.NewDecode(endpoint, err)
	}

	start := time.Now()
	var raw string
	err = br.Do(ctx, func(ctx context.Context) error {
		var sendErr error
		raw, sendErr = r.client.Send(ctx, endpoint, string(payload))
		return sendErr
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, breaker.ErrOpen) {
			r.metrics.RecordBreakerRejection(br.Name())
			r.metrics.RecordExternalCall(endpoint, "rejected", elapsed)
			return err
		}
		r.metrics.RecordExternalCall(endpoint, "failure", elapsed)
		return err
	}

	if err := r.codec.Decode(endpoint, []byte(raw), response); err != nil {
		r.metrics.RecordExternalCall(endpoint, "decode_error", elapsed)
		return err
	}

	r.metrics.RecordExternalCall(endpoint, "success", elapsed)
	return nil
}
