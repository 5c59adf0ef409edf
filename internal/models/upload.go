package models

import "time"

// UploadRecord is the durable trace of a finalized upload. Pending candidates
// are never written to the database; only completed uploads are.
type UploadRecord struct {
	ID         string
	Handle     string
	Kind       MediaKind
	FileName   string
	MimeType   string
	SizeBytes  int64
	Caption    string
	StorageURL string
	UploadedAt time.Time
}
