package server

import (
	"KosBridge/internal/conf"
	"KosBridge/internal/metrics"
	"KosBridge/internal/server/middleware"
	"KosBridge/internal/service"
	pkglog "KosBridge/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	billingService *service.BillingService,
	productService *service.ProductService,
	m *metrics.Metrics,
	logger log.Logger,
) *http.Server {
	logHelper := pkglog.NewLogHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logHelper, m),
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, billingService, productService)
	srv.Handle("/metrics", m.Handler())

	return srv
}

// registerRoutes wires the HTTP API surface.
func registerRoutes(srv *http.Server, billing *service.BillingService, product *service.ProductService) {
	api := srv.Route("/api")

	api.GET("/billings/current", billing.GetCurrentBilling)
	api.GET("/billings", billing.GetBilling)

	api.GET("/products/check", product.CheckChange)
	api.POST("/products/change", product.ChangeProduct)
	api.GET("/products/change/{requestId}", product.GetChangeStatus)

	api.POST("/notifications/billing-change", billing.HandleBillingChange)
}
