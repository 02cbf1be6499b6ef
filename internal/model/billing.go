// Package model defines the domain types exchanged with the KOS business
// system and served to API callers.
package model

import (
	"encoding/xml"
	"strings"
)

// BillingStatusRequest asks KOS whether the current month's billing data has
// been generated for a line.
type BillingStatusRequest struct {
	XMLName     xml.Name `xml:"billingStatusRequest" json:"-"`
	PhoneNumber string   `xml:"phoneNumber" json:"phoneNumber"`
}

// BillingStatus reports whether current-month billing data exists and which
// month is the current billing month.
type BillingStatus struct {
	PhoneNumber         string `xml:"phoneNumber" json:"phoneNumber"`
	CurrentBillingMonth string `xml:"currentBillingMonth" json:"currentBillingMonth"`
	BillingGenerated    bool   `xml:"billingGenerated" json:"billingGenerated"`
}

// BillingInfoRequest fetches the billing detail of a line for one month.
type BillingInfoRequest struct {
	XMLName      xml.Name `xml:"billingInfoRequest" json:"-"`
	PhoneNumber  string   `xml:"phoneNumber" json:"phoneNumber"`
	BillingMonth string   `xml:"billingMonth" json:"billingMonth"`
}

// BillingInfo is the billing detail for one line and month.
type BillingInfo struct {
	PhoneNumber       string             `xml:"phoneNumber" json:"phoneNumber"`
	BillingMonth      string             `xml:"billingMonth" json:"billingMonth"`
	TotalFee          int                `xml:"totalFee" json:"totalFee"`
	Details           []FeeItem          `xml:"details" json:"details"`
	Discounts         []Discount         `xml:"discounts" json:"discounts"`
	DeviceInstallment *DeviceInstallment `xml:"deviceInstallment" json:"deviceInstallment,omitempty"`
}

// EmptyBillingInfo returns the degraded default result served when billing
// data cannot be retrieved: total fee 0 and empty line items.
func EmptyBillingInfo(phoneNumber, billingMonth string) *BillingInfo {
	return &BillingInfo{
		PhoneNumber:  phoneNumber,
		BillingMonth: billingMonth,
		TotalFee:     0,
		Details:      []FeeItem{},
		Discounts:    []Discount{},
	}
}

// FeeItem is a single charge line within a bill.
type FeeItem struct {
	ItemCode string `xml:"itemCode" json:"itemCode"`
	ItemName string `xml:"itemName" json:"itemName"`
	Amount   int    `xml:"amount" json:"amount"`
}

// feeItemNames maps well-known charge codes to display names.
var feeItemNames = map[string]string{
	"BASE_FEE":    "Base Fee",
	"DATA_FEE":    "Data Fee",
	"SERVICE_FEE": "Additional Service Fee",
}

// UnmarshalXML tolerates fee items that arrive as either a nested structure
// or a bare code string. A bare code is normalized to a default structure
// with the scalar as the item code and amount 0.
func (f *FeeItem) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var probe struct {
		ItemCode string `xml:"itemCode"`
		ItemName string `xml:"itemName"`
		Amount   int    `xml:"amount"`
		Value    string `xml:",chardata"`
	}
	if err := d.DecodeElement(&probe, &start); err != nil {
		return err
	}

	if probe.ItemCode == "" && probe.ItemName == "" {
		if code := strings.TrimSpace(probe.Value); code != "" {
			f.ItemCode = code
			f.ItemName = feeItemDisplayName(code)
			f.Amount = 0
			return nil
		}
	}

	f.ItemCode = probe.ItemCode
	f.ItemName = probe.ItemName
	f.Amount = probe.Amount
	return nil
}

func feeItemDisplayName(code string) string {
	if name, ok := feeItemNames[code]; ok {
		return name
	}
	return code
}

// Discount is a discount line within a bill.
type Discount struct {
	DiscountCode string `xml:"discountCode" json:"discountCode"`
	DiscountName string `xml:"discountName" json:"discountName"`
	Amount       int    `xml:"amount" json:"amount"`
}

// UnmarshalXML tolerates discounts that arrive as a bare code string,
// normalizing them to a structure with the scalar as the discount code.
func (dc *Discount) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var probe struct {
		DiscountCode string `xml:"discountCode"`
		DiscountName string `xml:"discountName"`
		Amount       int    `xml:"amount"`
		Value        string `xml:",chardata"`
	}
	if err := d.DecodeElement(&probe, &start); err != nil {
		return err
	}

	if probe.DiscountCode == "" && probe.DiscountName == "" {
		if code := strings.TrimSpace(probe.Value); code != "" {
			dc.DiscountCode = code
			dc.DiscountName = "Unknown Discount"
			dc.Amount = 0
			return nil
		}
	}

	dc.DiscountCode = probe.DiscountCode
	dc.DiscountName = probe.DiscountName
	dc.Amount = probe.Amount
	return nil
}

// DeviceInstallment is the handset installment plan attached to a line.
type DeviceInstallment struct {
	DeviceName       string `xml:"deviceName" json:"deviceName"`
	MonthlyFee       int    `xml:"monthlyFee" json:"monthlyFee"`
	RemainingMonths  int    `xml:"remainingMonths" json:"remainingMonths"`
	RemainingBalance int    `xml:"remainingBalance" json:"remainingBalance"`
}
