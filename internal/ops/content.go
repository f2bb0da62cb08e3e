package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/wpfleet/internal/api"
	"github.com/thesavant42/wpfleet/internal/models"
)

// ProgressFunc receives per-item updates during a bulk operation. Passing
// nil is fine; progress reporting never changes behavior.
type ProgressFunc func(current, total int, message string)

// BackupIndex records backup artifacts so they stay findable later.
// *db.Store satisfies this.
type BackupIndex interface {
	RecordBackup(models.BackupSnapshot) error
}

// SearchReplaceOptions configures a bulk search/replace run
type SearchReplaceOptions struct {
	Search          string
	Replace         string
	PostTypes       []string // default: post, page
	DryRun          bool
	CaseInsensitive bool
	Progress        ProgressFunc
}

// ContentOps composes client calls into reviewable multi-step bulk edits
type ContentOps struct {
	client *api.Client
	logger *log.Logger

	// BackupDir is where snapshot artifacts are written (default "backups")
	BackupDir string

	// SiteName labels snapshots and the backup index; defaults to the
	// client's site URL
	SiteName string

	// Index, when set, records each snapshot in the local registry
	Index BackupIndex
}

// NewContentOps creates the content operations layer for one site's client
func NewContentOps(client *api.Client, logger *log.Logger) *ContentOps {
	return &ContentOps{
		client:    client,
		logger:    logger,
		BackupDir: "backups",
		SiteName:  client.SiteURL(),
	}
}

// wordPattern compiles a whole-word match for search. Word boundaries are
// only anchored where the term itself starts or ends with a word character,
// so "color" never matches inside "colorful" or "discoloration", but terms
// like "& Co." still match.
func wordPattern(search string, caseInsensitive bool) (*regexp.Regexp, error) {
	pat := regexp.QuoteMeta(search)
	if isWordByte(search[0]) {
		pat = `\b` + pat
	}
	if isWordByte(search[len(search)-1]) {
		pat = pat + `\b`
	}
	if caseInsensitive {
		pat = `(?i)` + pat
	}
	return regexp.Compile(pat)
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// SearchReplaceContent scans every content item of the requested types and
// counts whole-word occurrences of the search term in title and body
// separately. With DryRun the result only reports what would change; without
// it each affected item is updated via a partial update. A single item's
// update failure is recorded and the batch continues, except for failures
// that mean the whole site is unreachable (authentication, authorization),
// which abort early. Cancelling ctx aborts mid-batch; the partial result is
// returned alongside the context error.
func (o *ContentOps) SearchReplaceContent(ctx context.Context, opts SearchReplaceOptions) (*models.SearchReplaceResult, error) {
	if opts.Search == "" {
		return nil, &api.Error{
			Kind:     api.KindValidation,
			Site:     o.client.SiteURL(),
			Endpoint: "/content",
			Err:      fmt.Errorf("search term is required"),
		}
	}

	pattern, err := wordPattern(opts.Search, opts.CaseInsensitive)
	if err != nil {
		return nil, &api.Error{
			Kind:     api.KindValidation,
			Site:     o.client.SiteURL(),
			Endpoint: "/content",
			Err:      fmt.Errorf("invalid search term: %w", err),
		}
	}

	postTypes := opts.PostTypes
	if len(postTypes) == 0 {
		postTypes = []string{"post", "page"}
	}

	result := &models.SearchReplaceResult{DryRun: opts.DryRun}

	// Enumerate everything up front so progress totals are stable. A
	// failure here means the site is unreachable or misconfigured, so
	// abort instead of repeating the same failure per item.
	var items []models.ContentItem
	for _, pt := range postTypes {
		batch, err := o.client.GetContent(ctx, pt, "", 0)
		if err != nil {
			return result, err
		}
		items = append(items, batch...)
	}
	result.TotalScanned = len(items)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		titleMatches := len(pattern.FindAllStringIndex(item.Title, -1))
		contentMatches := len(pattern.FindAllStringIndex(item.Content, -1))

		if opts.Progress != nil {
			opts.Progress(i+1, len(items), fmt.Sprintf("Processing %s", item.Title))
		}

		if titleMatches == 0 && contentMatches == 0 {
			continue
		}

		result.Changes = append(result.Changes, models.ChangeRecord{
			ID:                  item.ID,
			Title:               item.Title,
			Link:                item.Link,
			TitleReplacements:   titleMatches,
			ContentReplacements: contentMatches,
		})
		result.TotalReplacements += titleMatches + contentMatches

		if opts.DryRun {
			continue
		}

		// The replacement is user text, not an expansion template: a "$" in
		// it must land in the content verbatim, never expand a group
		update := models.ContentUpdate{}
		if titleMatches > 0 {
			update.Title = models.StrPtr(pattern.ReplaceAllLiteralString(item.Title, opts.Replace))
		}
		if contentMatches > 0 {
			update.Content = models.StrPtr(pattern.ReplaceAllLiteralString(item.Content, opts.Replace))
		}

		if _, err := o.client.UpdateContent(ctx, item.ID, update); err != nil {
			if api.IsAuthentication(err) || api.IsAuthorization(err) {
				// Every remaining item would fail the same way
				return result, err
			}
			if o.logger != nil {
				o.logger.Error("failed to update content", "id", item.ID, "error", err)
			}
			result.Errors = append(result.Errors, models.ItemError{
				ID:      item.ID,
				Message: err.Error(),
			})
			continue
		}
		result.PostsModified++
	}

	return result, nil
}

// BackupBeforeBulkOperation captures the current title and content of the
// given items (or all posts and pages when ids is nil) into a timestamped
// JSON artifact. Any fetch failure fails the whole backup: a partial
// snapshot is worse than none when it's the rollback path for a destructive
// operation.
func (o *ContentOps) BackupBeforeBulkOperation(ctx context.Context, postIDs []int) (*models.BackupSnapshot, error) {
	var items []models.BackupItem

	if len(postIDs) > 0 {
		for _, id := range postIDs {
			item, err := o.client.GetContentByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("backup aborted at post %d: %w", id, err)
			}
			items = append(items, toBackupItem(*item))
		}
	} else {
		for _, pt := range []string{"post", "page"} {
			batch, err := o.client.GetContent(ctx, pt, "", 0)
			if err != nil {
				return nil, fmt.Errorf("backup aborted: %w", err)
			}
			for _, item := range batch {
				items = append(items, toBackupItem(item))
			}
		}
	}

	now := time.Now()
	snapshot := &models.BackupSnapshot{
		Site:      o.SiteName,
		Count:     len(items),
		CreatedAt: now,
		Items:     items,
	}

	if err := os.MkdirAll(o.BackupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	snapshot.File = filepath.Join(o.BackupDir, fmt.Sprintf("content_%s.json", now.Format("20060102_150405")))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := os.WriteFile(snapshot.File, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	if o.Index != nil {
		if err := o.Index.RecordBackup(*snapshot); err != nil && o.logger != nil {
			// The artifact exists; a missing index row is an annoyance,
			// not a lost backup
			o.logger.Warn("failed to index backup", "file", snapshot.File, "error", err)
		}
	}

	if o.logger != nil {
		o.logger.Info("backup written", "file", snapshot.File, "items", snapshot.Count)
	}

	return snapshot, nil
}

func toBackupItem(item models.ContentItem) models.BackupItem {
	return models.BackupItem{
		ID:      item.ID,
		Type:    item.Type,
		Title:   item.Title,
		Content: item.Content,
		Status:  item.Status,
	}
}

// RevisionHistory fetches the revision list for a content item
func (o *ContentOps) RevisionHistory(ctx context.Context, postID int) ([]models.Revision, error) {
	return o.client.GetRevisions(ctx, postID)
}

// RestoreFromRevision restores a content item to a specific revision
func (o *ContentOps) RestoreFromRevision(ctx context.Context, postID, revisionID int) error {
	result, err := o.client.RestoreRevision(ctx, postID, revisionID)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("server declined to restore revision %d for post %d", revisionID, postID)
	}
	return nil
}
