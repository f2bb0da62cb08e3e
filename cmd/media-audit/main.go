package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/thesavant42/wpfleet/internal/auth"
	"github.com/thesavant42/wpfleet/internal/db"
	"github.com/thesavant42/wpfleet/internal/ops"
)

// media-audit produces a one-shot markdown report of which media library
// items are no longer referenced by any content on a site.
func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", "wpfleet.db", "Path to the site registry database")
	site := flag.String("site", "", "Site name to audit")
	useEnv := flag.Bool("env", false, "Resolve credentials from WPFLEET_SITE_* env vars")
	flag.Parse()

	if *site == "" {
		log.Fatal("-site is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var provider auth.Provider
	if *useEnv {
		provider = auth.EnvProvider{}
	} else {
		store, err := db.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open site registry: %v", err)
		}
		defer store.Close()
		provider = store
	}

	media, err := ops.NewManager(provider, nil).Media(*site)
	if err != nil {
		log.Fatalf("Failed to resolve site %s: %v", *site, err)
	}

	report, err := media.FindUnusedMedia(ctx)
	if err != nil {
		log.Fatalf("Media audit failed: %v", err)
	}

	// Write markdown report
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("media-audit-%s-%s.md", *site, timestamp)
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Media Audit: %s\n\n", *site)
	fmt.Fprintf(f, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(f, "- **Media Items**: %d\n", report.TotalMedia)
	fmt.Fprintf(f, "- **Content Items Scanned**: %d\n", report.TotalContent)
	fmt.Fprintf(f, "- **Unused Media**: %d\n\n", len(report.Unused))

	if len(report.Unused) > 0 {
		fmt.Fprintf(f, "## Unused Media\n\n")
		fmt.Fprintf(f, "| ID | Title | Type | Size | URL |\n")
		fmt.Fprintf(f, "|----|-------|------|------|-----|\n")
		for _, m := range report.Unused {
			title := m.Title
			if title == "" {
				title = "-"
			}
			fmt.Fprintf(f, "| %d | %s | %s | %s | %s |\n",
				m.ID, title, m.MimeType, formatSize(m.FileSize), m.SourceURL)
		}
		fmt.Fprintf(f, "\n")
	} else {
		fmt.Fprintf(f, "*Every media item is referenced by at least one content item*\n")
	}

	fmt.Printf("✓ Exported to %s\n", filename)
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	case bytes > 0:
		return fmt.Sprintf("%d B", bytes)
	default:
		return "-"
	}
}
