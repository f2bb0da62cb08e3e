package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thesavant42/wpfleet/internal/auth"
	"github.com/thesavant42/wpfleet/internal/models"

	_ "modernc.org/sqlite"
)

// Store is the local site registry: which sites exist, their URLs and API
// keys, and an index of backup artifacts written before bulk operations.
// It implements auth.Provider so clients can be constructed straight from
// the registry.
type Store struct {
	conn *sql.DB
}

// Open creates the registry database (and its parent directory) if needed
// and initializes the schema.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.Exec(createSitesTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create sites schema: %w", err)
	}

	if _, err := conn.Exec(createBackupsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create backups schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// AddSite registers a site, overwriting URL and key if the name exists
func (s *Store) AddSite(name, url, apiKey string) error {
	if name == "" || url == "" || apiKey == "" {
		return fmt.Errorf("name, url and api key are all required")
	}
	_, err := s.conn.Exec(insertSite, name, url, apiKey)
	if err != nil {
		return fmt.Errorf("failed to add site %s: %w", name, err)
	}
	return nil
}

// GetSite returns one site by name
func (s *Store) GetSite(name string) (*models.SiteRecord, error) {
	row := s.conn.QueryRow(selectSite, name)

	var rec models.SiteRecord
	var createdAt, updatedAt string
	err := row.Scan(&rec.ID, &rec.Name, &rec.URL, &rec.APIKey, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &auth.UnknownSiteError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s: %w", name, err)
	}

	rec.CreatedAt, _ = parseTimestamp(createdAt)
	rec.UpdatedAt, _ = parseTimestamp(updatedAt)
	return &rec, nil
}

// ListSites returns all registered sites ordered by name
func (s *Store) ListSites() ([]models.SiteRecord, error) {
	rows, err := s.conn.Query(selectSites)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	var sites []models.SiteRecord
	for rows.Next() {
		var rec models.SiteRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.URL, &rec.APIKey, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		rec.CreatedAt, _ = parseTimestamp(createdAt)
		rec.UpdatedAt, _ = parseTimestamp(updatedAt)
		sites = append(sites, rec)
	}
	return sites, rows.Err()
}

// RemoveSite deletes a site from the registry
func (s *Store) RemoveSite(name string) error {
	_, err := s.conn.Exec(deleteSite, name)
	if err != nil {
		return fmt.Errorf("failed to remove site %s: %w", name, err)
	}
	return nil
}

// Resolve implements auth.Provider
func (s *Store) Resolve(name string) (auth.Credential, error) {
	rec, err := s.GetSite(name)
	if err != nil {
		return auth.Credential{}, err
	}
	if rec.APIKey == "" {
		return auth.Credential{}, fmt.Errorf("site %s has no API key", name)
	}
	return auth.Credential{URL: rec.URL, APIKey: rec.APIKey}, nil
}

// RecordBackup indexes a backup artifact so old snapshots stay findable
func (s *Store) RecordBackup(snapshot models.BackupSnapshot) error {
	_, err := s.conn.Exec(insertBackup, snapshot.Site, snapshot.File, snapshot.Count)
	if err != nil {
		return fmt.Errorf("failed to record backup: %w", err)
	}
	return nil
}

// ListBackups returns backup metadata for a site, newest first
func (s *Store) ListBackups(siteName string) ([]models.BackupSnapshot, error) {
	rows, err := s.conn.Query(selectBackups, siteName)
	if err != nil {
		return nil, fmt.Errorf("failed to query backups: %w", err)
	}
	defer rows.Close()

	var backups []models.BackupSnapshot
	for rows.Next() {
		var b models.BackupSnapshot
		var createdAt string
		if err := rows.Scan(&b.Site, &b.File, &b.Count, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		b.CreatedAt, _ = parseTimestamp(createdAt)
		backups = append(backups, b)
	}
	return backups, rows.Err()
}

// parseTimestamp parses SQLite timestamp formats
func parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", ts)
}
