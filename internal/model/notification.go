package model

// BillingChangeNotification is the out-of-band push KOS sends when billing
// data changed on its side. Receipt invalidates the matching cache entry.
type BillingChangeNotification struct {
	PhoneNumber  string                `json:"phoneNumber"`
	BillingMonth string                `json:"billingMonth"`
	ChangeType   string                `json:"changeType"`
	Details      []BillingChangeDetail `json:"details"`
}

// BillingChangeDetail describes one changed charge line.
type BillingChangeDetail struct {
	ItemCode     string `json:"itemCode"`
	Amount       int    `json:"amount"`
	ChangeReason string `json:"changeReason"`
}
