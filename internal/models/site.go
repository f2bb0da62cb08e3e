package models

import "time"

// SiteRecord is one managed WordPress site as stored in the local registry.
// The API key itself lives in the registry too; treat loaded records as
// secrets and never log the key.
type SiteRecord struct {
	ID        int64
	Name      string
	URL       string
	APIKey    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
