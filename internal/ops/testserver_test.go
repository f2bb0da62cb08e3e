package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/thesavant42/wpfleet/internal/models"
)

// fakeSite is an in-memory stand-in for the WPBM plugin's REST namespace.
// It applies partial updates the way the real endpoint does: only fields
// present in the request body change.
type fakeSite struct {
	mu     sync.Mutex
	items  []models.ContentItem
	media  []models.MediaItem
	writes int

	// revisions maps content IDs to their revision history
	revisions map[int][]models.Revision

	// restored records [contentID, revisionID] pairs from restore calls
	restored [][2]int

	// serverBackups counts POST /backup calls
	serverBackups int

	// failPut maps content IDs to a status code their PUT should fail with
	failPut map[int]int

	// failList, when nonzero, fails every content list request
	failList int
}

func (f *fakeSite) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeSite) item(id int) (models.ContentItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.ContentItem{}, false
}

func (f *fakeSite) serve(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const ns = "/wp-json/wpbm/v1"
		path := strings.TrimPrefix(r.URL.Path, ns)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case path == "/content" && r.Method == http.MethodGet:
			f.handleList(w, r)
		case path == "/content" && r.Method == http.MethodPost:
			f.handleCreate(w, r)
		case strings.HasPrefix(path, "/content/"):
			f.handleContentItem(w, r, strings.TrimPrefix(path, "/content/"))
		case path == "/media" && r.Method == http.MethodGet:
			f.handleMedia(w, r)
		case strings.HasPrefix(path, "/media/") && r.Method == http.MethodGet:
			f.handleMediaGet(w, strings.TrimPrefix(path, "/media/"))
		case path == "/backup" && r.Method == http.MethodPost:
			f.handleBackup(w)
		default:
			http.Error(w, `{"error":"no route"}`, http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (f *fakeSite) handleList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failList != 0 {
		http.Error(w, `{"error":"denied"}`, f.failList)
		return
	}

	wantType := r.URL.Query().Get("type")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	var filtered []models.ContentItem
	for _, it := range f.items {
		if it.Type == wantType {
			filtered = append(filtered, it)
		}
	}

	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	json.NewEncoder(w).Encode(map[string]any{"posts": filtered[start:end], "total": len(filtered)})
}

// handleContentItem routes /content/{id}[/revisions[/{rev}/restore]]
func (f *fakeSite) handleContentItem(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		f.handleGet(w, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPut:
		f.handlePut(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		f.handleDelete(w, parts[0])
	case len(parts) == 2 && parts[1] == "revisions" && r.Method == http.MethodGet:
		f.handleRevisions(w, parts[0])
	case len(parts) == 4 && parts[1] == "revisions" && parts[3] == "restore" && r.Method == http.MethodPost:
		f.handleRestore(w, parts[0], parts[2])
	default:
		http.Error(w, `{"error":"no route"}`, http.StatusNotFound)
	}
}

func (f *fakeSite) handleCreate(w http.ResponseWriter, r *http.Request) {
	var item models.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	item.ID = 1
	for _, it := range f.items {
		if it.ID >= item.ID {
			item.ID = it.ID + 1
		}
	}
	f.items = append(f.items, item)
	f.writes++
	json.NewEncoder(w).Encode(map[string]any{"success": true, "id": item.ID})
}

func (f *fakeSite) handleDelete(w http.ResponseWriter, idStr string) {
	id, _ := strconv.Atoi(idStr)

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		f.items = append(f.items[:i], f.items[i+1:]...)
		f.writes++
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": id})
		return
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

func (f *fakeSite) handleRevisions(w http.ResponseWriter, idStr string) {
	id, _ := strconv.Atoi(idStr)
	if _, ok := f.item(id); !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	json.NewEncoder(w).Encode(map[string]any{"revisions": f.revisions[id]})
}

func (f *fakeSite) handleRestore(w http.ResponseWriter, idStr, revStr string) {
	id, _ := strconv.Atoi(idStr)
	revID, _ := strconv.Atoi(revStr)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rev := range f.revisions[id] {
		if rev.ID != revID {
			continue
		}
		for i := range f.items {
			if f.items[i].ID == id {
				f.items[i].Title = rev.Title
				f.items[i].Content = rev.Content
			}
		}
		f.restored = append(f.restored, [2]int{id, revID})
		f.writes++
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": id})
		return
	}
	http.Error(w, `{"error":"unknown revision"}`, http.StatusNotFound)
}

func (f *fakeSite) handleMediaGet(w http.ResponseWriter, idStr string) {
	id, _ := strconv.Atoi(idStr)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.media {
		if m.ID == id {
			json.NewEncoder(w).Encode(m)
			return
		}
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

func (f *fakeSite) handleBackup(w http.ResponseWriter) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.serverBackups++
	json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"backup_id": "srv-1",
		"count":     len(f.items),
	})
}

func (f *fakeSite) handleGet(w http.ResponseWriter, idStr string) {
	id, _ := strconv.Atoi(idStr)
	item, ok := f.item(id)
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(item)
}

func (f *fakeSite) handlePut(w http.ResponseWriter, r *http.Request, idStr string) {
	id, _ := strconv.Atoi(idStr)

	f.mu.Lock()
	defer f.mu.Unlock()

	if status, fail := f.failPut[id]; fail {
		http.Error(w, `{"error":"update rejected"}`, status)
		return
	}

	var update struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
		Status  *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}

	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if update.Title != nil {
			f.items[i].Title = *update.Title
		}
		if update.Content != nil {
			f.items[i].Content = *update.Content
		}
		if update.Status != nil {
			f.items[i].Status = *update.Status
		}
		f.writes++
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": id})
		return
	}
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}

func (f *fakeSite) handleMedia(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	start := (page - 1) * limit
	if start > len(f.media) {
		start = len(f.media)
	}
	end := start + limit
	if end > len(f.media) {
		end = len(f.media)
	}

	json.NewEncoder(w).Encode(map[string]any{"media": f.media[start:end], "total": len(f.media)})
}
