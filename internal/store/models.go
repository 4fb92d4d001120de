package store

import (
	"time"
)

// FileRecord describes one uploaded file relayed into a storage channel.
// ID is opaque and immutable once assigned at ingestion.
type FileRecord struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	ChatID     int64     `json:"chat_id"`    // storage channel the file was relayed to
	MessageID  int       `json:"message_id"` // message inside that channel
	SizeBytes  int64     `json:"size_bytes"`
	UploaderID int64     `json:"uploader_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Batch is a named, ordered collection of file record ids shared via one link.
// Files may be appended only while the owning admin is in batch-building mode;
// Final marks completion.
type Batch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FileIDs   []string  `json:"file_ids"`
	OwnerID   int64     `json:"owner_id"`
	Final     bool      `json:"final"`
	CreatedAt time.Time `json:"created_at"`
}

// Request statuses. Approved, denied and no_match are terminal.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestDenied   = "denied"
	RequestNoMatch  = "no_match"
)

// Request is a free-text file request escalated to the admins.
type Request struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	RequesterID int64     `json:"requester_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Resolved reports whether the request reached a terminal status.
func (r *Request) Resolved() bool {
	return r.Status != RequestPending
}

// Clone visibility and usage values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	UsageGeneral   = "general"
	UsageFileStore = "file-store"
)

// CloneRegistration records one cloned bot. Token is unique across
// registrations and the record is never mutated after creation.
type CloneRegistration struct {
	Token      string    `json:"token"`
	Username   string    `json:"username"`
	Visibility string    `json:"visibility"`
	OwnerID    int64     `json:"owner_id"`
	Usage      string    `json:"usage"`
	Standalone bool      `json:"standalone"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsPrivate reports whether interactions must be restricted to the owner.
func (c *CloneRegistration) IsPrivate() bool {
	return c.Visibility == VisibilityPrivate
}

// ButtonSpec is one admin-configured inline button attached to stored files.
// Exactly one of URL or CallbackData should be set; both may contain the
// {file_link} and {file_id} placeholders.
type ButtonSpec struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// ShortenerConfig holds the admin-configured link shortener.
type ShortenerConfig struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}
