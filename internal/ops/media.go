package ops

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/thesavant42/wpfleet/internal/api"
	"github.com/thesavant42/wpfleet/internal/models"
)

// wpImageBlockID pulls the attachment id out of Gutenberg wp:image block
// comments, e.g. <!-- wp:image {"id":42,...} -->
var wpImageBlockID = regexp.MustCompile(`wp:image[^}]*?"id":(\d+)`)

// MediaOps handles media library inventory and usage analysis
type MediaOps struct {
	client *api.Client
	logger *log.Logger
}

// NewMediaOps creates the media operations layer for one site's client
func NewMediaOps(client *api.Client, logger *log.Logger) *MediaOps {
	return &MediaOps{client: client, logger: logger}
}

// ListMedia returns the media library, paginating until exhausted
func (o *MediaOps) ListMedia(ctx context.Context, limit int) ([]models.MediaItem, error) {
	return o.client.ListMedia(ctx, limit)
}

// contentRefs is the usage index built from one pass over all content:
// every URL referenced from markup plus every attachment id referenced by
// Gutenberg blocks or featured-image fields. Media items matched by neither
// set fall back to a substring scan over the raw bodies, which catches
// references the tokenizer cannot see (inline CSS url(...), plain-text
// links). The index keeps the common case near O(media + content); the
// fallback only runs for candidates already headed for the unused list.
type contentRefs struct {
	urls   map[string]struct{}
	ids    map[int]struct{}
	bodies []string
}

func (r *contentRefs) add(item models.ContentItem) {
	for _, u := range extractURLs(item.Content) {
		r.urls[u] = struct{}{}
	}
	for _, m := range wpImageBlockID.FindAllStringSubmatch(item.Content, -1) {
		if id, err := strconv.Atoi(m[1]); err == nil {
			r.ids[id] = struct{}{}
		}
	}
	if item.FeaturedMedia != 0 {
		r.ids[item.FeaturedMedia] = struct{}{}
	}
	r.bodies = append(r.bodies, item.Content)
}

func (r *contentRefs) references(media models.MediaItem) bool {
	if _, ok := r.ids[media.ID]; ok {
		return true
	}
	if media.SourceURL == "" {
		return false
	}
	if _, ok := r.urls[media.SourceURL]; ok {
		return true
	}
	for _, body := range r.bodies {
		if strings.Contains(body, media.SourceURL) {
			return true
		}
	}
	return false
}

// extractURLs walks the HTML fragment and collects src/href/srcset/poster
// attribute values
func extractURLs(fragment string) []string {
	var urls []string

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			// EOF or malformed markup: return what we have, a partial
			// index only makes the unused report more conservative
			return urls
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		_, hasAttr := tokenizer.TagName()
		if !hasAttr {
			continue
		}
		for {
			key, val, more := tokenizer.TagAttr()
			switch string(key) {
			case "src", "href", "poster":
				if v := strings.TrimSpace(string(val)); v != "" {
					urls = append(urls, v)
				}
			case "srcset":
				for _, candidate := range strings.Split(string(val), ",") {
					fields := strings.Fields(strings.TrimSpace(candidate))
					if len(fields) > 0 {
						urls = append(urls, fields[0])
					}
				}
			}
			if !more {
				break
			}
		}
	}
}

// FindUnusedMedia fetches the full media list and the full content corpus,
// then reports media items that no content body references by URL or
// attachment id. External references (theme options, widgets, other sites)
// are invisible to this scan, so treat the report as candidates for
// cleanup, not a deletion list.
func (o *MediaOps) FindUnusedMedia(ctx context.Context) (*models.MediaUsageReport, error) {
	media, err := o.client.ListMedia(ctx, 0)
	if err != nil {
		return nil, err
	}

	refs := &contentRefs{
		urls: make(map[string]struct{}),
		ids:  make(map[int]struct{}),
	}

	totalContent := 0
	for _, pt := range []string{"post", "page"} {
		items, err := o.client.GetContent(ctx, pt, "", 0)
		if err != nil {
			return nil, err
		}
		totalContent += len(items)
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			refs.add(item)
		}
	}

	report := &models.MediaUsageReport{
		TotalMedia:   len(media),
		TotalContent: totalContent,
	}
	for _, m := range media {
		if !refs.references(m) {
			report.Unused = append(report.Unused, m)
		}
	}

	if o.logger != nil {
		o.logger.Info("media usage scan complete",
			"media", report.TotalMedia,
			"content", report.TotalContent,
			"unused", len(report.Unused))
	}

	return report, nil
}
