package models

// OwnerHeader carries the owner identity when no client certificate is used.
const OwnerHeader = "X-Owner-ID"

// PutRecordRequest is the body of PUT /api/records/{key}.
type PutRecordRequest struct {
	Payload []byte `json:"payload"`
}

// BatchReadRequest is the body of POST /api/batch/read.
type BatchReadRequest struct {
	Keys []string `json:"keys"`
}
