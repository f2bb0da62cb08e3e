package models

// ContentItem is a normalized view of a WordPress post or page as returned
// by the WP Bulk Manager plugin endpoints. It is a transient projection of
// server state, never persisted locally.
type ContentItem struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`   // "page", "post", ...
	Title    string `json:"title"`
	Content  string `json:"content"` // raw HTML body
	Status   string `json:"status"`  // "draft", "publish", ...
	Link     string `json:"link"`
	Modified string `json:"modified"`
	SEO      *SEO   `json:"seo,omitempty"`

	// FeaturedMedia is the attachment ID of the featured image, 0 if none
	FeaturedMedia int `json:"featured_media,omitempty"`
}

// SEO holds the plugin-provided SEO metadata for a content item
type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ContentUpdate describes a partial update to a content item.
// Only non-nil fields are sent to the server; omitted fields are left
// untouched server-side. Full-overwrite updates have destroyed live titles
// before, so every field is opt-in.
type ContentUpdate struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Status  *string `json:"status,omitempty"`
	SEO     *SEO    `json:"seo,omitempty"`
}

// Revision is one entry in a content item's revision history
type Revision struct {
	ID       int    `json:"id"`
	ParentID int    `json:"parent"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Modified string `json:"modified"`
	Author   string `json:"author"`
}

// StrPtr returns a pointer to s, for building ContentUpdate literals
func StrPtr(s string) *string {
	return &s
}
