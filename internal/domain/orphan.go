package domain

import "time"

// OrphanBlob is an uploaded object that may no longer belong to any order.
type OrphanBlob struct {
	ID        string
	Bucket    string
	Key       string
	CreatedAt time.Time
}
