package models

// ChangeRecord describes the replacements made (or previewed) in one content item
type ChangeRecord struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	Link                string `json:"link,omitempty"`
	TitleReplacements   int    `json:"title_replacements"`
	ContentReplacements int    `json:"content_replacements"`
}

// ItemError records a per-item failure during a bulk operation.
// Bulk operations are best-effort: one failed item never aborts the batch,
// the caller inspects Errors to see which IDs need attention.
type ItemError struct {
	ID      int    `json:"id"`
	Message string `json:"error"`
}

// SearchReplaceResult is the aggregate outcome of a bulk search/replace run.
// When DryRun is true no writes occurred and the counts describe what would
// change; an identical run with DryRun false should modify exactly those items.
type SearchReplaceResult struct {
	DryRun            bool           `json:"dry_run"`
	TotalScanned      int            `json:"total_scanned"`
	PostsModified     int            `json:"posts_modified"`
	TotalReplacements int            `json:"total_replacements"`
	Changes           []ChangeRecord `json:"changes"`
	Errors            []ItemError    `json:"errors,omitempty"`
}
