package models

// MediaItem is one attachment in the remote media library
type MediaItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	MimeType  string `json:"mime_type"`
	FileSize  int64  `json:"file_size"`
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text,omitempty"`
}

// MediaUsageReport summarizes a media library usage scan
type MediaUsageReport struct {
	TotalMedia   int         `json:"total_media"`
	TotalContent int         `json:"total_content"`
	Unused       []MediaItem `json:"unused"`
}
