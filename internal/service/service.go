// Package service implements the HTTP-facing application services. Services
// stay thin: input decoding, usecase invocation, error translation.
package service

import (
	stderrors "errors"

	pkgerrors "KosBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewBillingService,
	NewProductService,
)

// toAPIError translates the domain error taxonomy into kratos HTTP errors.
// Validation and precondition failures are the caller's fault (400); a
// missing change record maps to 404; everything else is an internal error.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}

	var ve *pkgerrors.ValidationError
	if stderrors.As(err, &ve) {
		return errors.BadRequest("INVALID_ARGUMENT", ve.Error())
	}

	var pe *pkgerrors.PreconditionError
	if stderrors.As(err, &pe) {
		return errors.BadRequest(pe.Code, pe.Message)
	}

	if pkgerrors.IsNotFound(err) {
		return errors.NotFound("NOT_FOUND", err.Error())
	}

	return errors.InternalServer("INTERNAL_ERROR", err.Error())
}
