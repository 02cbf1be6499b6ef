package model

import "encoding/xml"

// Line status values reported by KOS.
const (
	// LineStatusActive marks a line in normal use; only active lines may
	// change products.
	LineStatusActive = "ACTIVE"
	// LineStatusSuspended marks a suspended line.
	LineStatusSuspended = "SUSPENDED"
)

// CustomerInfoRequest fetches customer and line state for a phone number.
type CustomerInfoRequest struct {
	XMLName     xml.Name `xml:"customerInfoRequest" json:"-"`
	PhoneNumber string   `xml:"phoneNumber" json:"phoneNumber"`
}

// CustomerInfo is the customer and line state for a phone number.
type CustomerInfo struct {
	PhoneNumber    string       `xml:"phoneNumber" json:"phoneNumber"`
	Status         string       `xml:"status" json:"status"`
	CurrentProduct *ProductInfo `xml:"currentProduct" json:"currentProduct"`
}

// ProductInfoRequest fetches the catalog entry for a product code.
type ProductInfoRequest struct {
	XMLName     xml.Name `xml:"productInfoRequest" json:"-"`
	ProductCode string   `xml:"productCode" json:"productCode"`
}

// ProductInfo is a catalog entry.
type ProductInfo struct {
	ProductCode string `xml:"productCode" json:"productCode"`
	ProductName string `xml:"productName" json:"productName"`
	Fee         int    `xml:"fee" json:"fee"`
}

// unknownProductName marks the placeholder catalog entry served when KOS
// returns nothing for a product code.
const unknownProductName = "Unknown Product"

// DefaultProductInfo is the placeholder served when KOS returns nothing for
// a product code.
func DefaultProductInfo(productCode string) *ProductInfo {
	return &ProductInfo{
		ProductCode: productCode,
		ProductName: unknownProductName,
		Fee:         0,
	}
}

// Unknown reports whether the entry is the placeholder for a code KOS does
// not know.
func (p *ProductInfo) Unknown() bool {
	return p == nil || p.ProductName == unknownProductName
}

// ProductChangeRequest asks KOS to move a line to another product. RequestID
// doubles as an idempotency token so a retried change that already committed
// remotely is not applied twice.
type ProductChangeRequest struct {
	XMLName      xml.Name `xml:"productChangeRequest" json:"-"`
	RequestID    string   `xml:"requestId" json:"requestId"`
	PhoneNumber  string   `xml:"phoneNumber" json:"phoneNumber"`
	ProductCode  string   `xml:"productCode" json:"productCode"`
	ChangeReason string   `xml:"changeReason" json:"changeReason"`
}

// ProductChangeResult is the KOS outcome of a product change attempt.
type ProductChangeResult struct {
	Success       bool   `xml:"success" json:"success"`
	Message       string `xml:"message" json:"message"`
	TransactionID string `xml:"transactionId" json:"transactionId"`
}

// ProductCheckResult reports whether a product change may proceed. Code is
// set to the rejection reason when Available is false.
type ProductCheckResult struct {
	Available      bool         `json:"available"`
	Code           string       `json:"code,omitempty"`
	Message        string       `json:"message"`
	CurrentProduct *ProductInfo `json:"currentProduct,omitempty"`
	TargetProduct  *ProductInfo `json:"targetProduct,omitempty"`
}
