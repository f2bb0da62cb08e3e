package db

const createSitesTable = `
CREATE TABLE IF NOT EXISTS sites (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    url TEXT NOT NULL,
    api_key TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sites_name ON sites(name);
`

const insertSite = `
INSERT INTO sites (name, url, api_key) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    url = excluded.url,
    api_key = excluded.api_key,
    updated_at = CURRENT_TIMESTAMP
`

const selectSite = `
SELECT id, name, url, api_key, created_at, updated_at FROM sites WHERE name = ?
`

const selectSites = `
SELECT id, name, url, api_key, created_at, updated_at FROM sites ORDER BY name
`

const deleteSite = `
DELETE FROM sites WHERE name = ?
`

// Schema for backup artifacts written before destructive bulk operations
const createBackupsTable = `
CREATE TABLE IF NOT EXISTS backups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_name TEXT NOT NULL,
    file TEXT NOT NULL,
    item_count INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_backups_site ON backups(site_name);
`

const insertBackup = `
INSERT INTO backups (site_name, file, item_count) VALUES (?, ?, ?)
`

const selectBackups = `
SELECT site_name, file, item_count, created_at FROM backups
WHERE site_name = ?
ORDER BY created_at DESC
`
