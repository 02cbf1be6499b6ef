package biz

import (
	"regexp"
	"strconv"

	pkgerrors "KosBridge/pkg/errors"
)

var (
	phoneNumberPattern = regexp.MustCompile(`^01[016789][0-9]{7,8}$`)
	billingMonthDigits = regexp.MustCompile(`^\d{6}$`)
	productCodePattern = regexp.MustCompile(`^[A-Z0-9_]{3,20}$`)
)

// validatePhoneNumber checks the Korean mobile number format KOS accepts.
func validatePhoneNumber(phoneNumber string) error {
	if !phoneNumberPattern.MatchString(phoneNumber) {
		return pkgerrors.NewValidation("phoneNumber", "invalid phone number format")
	}
	return nil
}

// validateBillingMonth checks the YYYYMM billing month format.
func validateBillingMonth(billingMonth string) error {
	if !billingMonthDigits.MatchString(billingMonth) {
		return pkgerrors.NewValidation("billingMonth", "billing month must be YYYYMM")
	}
	month, err := strconv.Atoi(billingMonth[4:])
	if err != nil || month < 1 || month > 12 {
		return pkgerrors.NewValidation("billingMonth", "billing month out of range")
	}
	return nil
}

// validateProductCode checks the KOS product catalog code format.
func validateProductCode(productCode string) error {
	if !productCodePattern.MatchString(productCode) {
		return pkgerrors.NewValidation("productCode", "invalid product code format")
	}
	return nil
}
