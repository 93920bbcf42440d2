package model

// Consignor is the minimal projection of a directory entry consumed by the
// import pipeline. The directory service owns the full record.
type Consignor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"` // 3 digits + 2 letters + 1 digit, e.g. 472HK3
}
