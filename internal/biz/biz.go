// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models.
package biz

import (
	"KosBridge/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewBillingUsecase,
	NewProductUsecase,
	NewSyncUsecase,
	NewRetryTask,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(KOSRepo), new(*data.KOSRepo)),
	wire.Bind(new(BillingCacheRepo), new(*data.BillingCacheRepo)),
	wire.Bind(new(ChangeRequestRepo), new(*data.ChangeRequestRepo)),
)
