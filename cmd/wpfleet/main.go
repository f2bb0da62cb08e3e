package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/thesavant42/wpfleet/internal/api"
	"github.com/thesavant42/wpfleet/internal/auth"
	"github.com/thesavant42/wpfleet/internal/db"
	"github.com/thesavant42/wpfleet/internal/models"
	"github.com/thesavant42/wpfleet/internal/ops"
	"github.com/thesavant42/wpfleet/internal/ui"
)

const defaultDBPath = "wpfleet.db"

func usage() {
	fmt.Fprintf(os.Stderr, `wpfleet - bulk management for a fleet of WordPress sites

Usage:
  wpfleet [flags] <command>

Commands:
  sites            List registered sites
  add-site         Register a site (prompts unless -url and -key are given)
  remove-site      Remove a site from the registry
  cache-stats      Show response cache statistics for a site
  search-replace   Whole-word search/replace across a site's content
  backup           Snapshot a site's content to a local JSON artifact
  backups          List recorded backup artifacts for a site
  unused-media     Report media library items referenced by no content
  revisions        Show revision history for one content item
  restore          Restore one content item to a specific revision

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	// Load .env if present; the env provider and per-site overrides live there
	_ = godotenv.Load()

	dbPath := flag.String("db", defaultDBPath, "Path to the site registry database")
	siteFlag := flag.String("site", "", "Site name to operate on")
	useEnv := flag.Bool("env", false, "Resolve credentials from WPFLEET_SITE_* env vars instead of the registry")
	urlFlag := flag.String("url", "", "Site URL (add-site)")
	keyFlag := flag.String("key", "", "API key (add-site)")
	searchFlag := flag.String("search", "", "Text to search for (search-replace)")
	replaceFlag := flag.String("replace", "", "Replacement text (search-replace)")
	typesFlag := flag.String("types", "post,page", "Comma-separated post types")
	applyFlag := flag.Bool("apply", false, "Apply changes instead of previewing (search-replace)")
	yesFlag := flag.Bool("yes", false, "Skip the confirmation prompt")
	insensitiveFlag := flag.Bool("i", false, "Case-insensitive matching (search-replace)")
	idFlag := flag.Int("id", 0, "Content ID (revisions, restore)")
	revFlag := flag.Int("rev", 0, "Revision ID (restore)")
	verboseFlag := flag.Bool("verbose", false, "Enable debug logging")
	flag.Usage = usage
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if *verboseFlag {
		logger.SetLevel(log.DebugLevel)
	}

	command := flag.Arg(0)
	if command == "" {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := db.Open(*dbPath)
	if err != nil {
		ui.PrintError(fmt.Sprintf("Failed to open site registry: %v", err))
		os.Exit(1)
	}
	defer store.Close()

	var provider auth.Provider = store
	if *useEnv {
		provider = auth.EnvProvider{}
	}
	mgr := ops.NewManager(provider, logger)

	switch command {
	case "sites":
		runSites(store)
	case "add-site":
		runAddSite(store, *siteFlag, *urlFlag, *keyFlag)
	case "remove-site":
		requireSite(*siteFlag)
		if err := store.RemoveSite(*siteFlag); err != nil {
			fatal(err)
		}
		ui.PrintSuccess(fmt.Sprintf("Removed site %s", *siteFlag))
	case "cache-stats":
		requireSite(*siteFlag)
		runCacheStats(ctx, mgr, *siteFlag)
	case "search-replace":
		requireSite(*siteFlag)
		runSearchReplace(ctx, mgr, store, searchReplaceArgs{
			site:            *siteFlag,
			search:          *searchFlag,
			replace:         *replaceFlag,
			postTypes:       splitTypes(*typesFlag),
			apply:           *applyFlag,
			skipConfirm:     *yesFlag,
			caseInsensitive: *insensitiveFlag,
		})
	case "backup":
		requireSite(*siteFlag)
		runBackup(ctx, mgr, store, *siteFlag)
	case "backups":
		requireSite(*siteFlag)
		runListBackups(store, *siteFlag)
	case "unused-media":
		requireSite(*siteFlag)
		runUnusedMedia(ctx, mgr, *siteFlag)
	case "revisions":
		requireSite(*siteFlag)
		runRevisions(ctx, mgr, *siteFlag, *idFlag)
	case "restore":
		requireSite(*siteFlag)
		runRestore(ctx, mgr, *siteFlag, *idFlag, *revFlag, *yesFlag)
	default:
		ui.PrintError(fmt.Sprintf("Unknown command: %s", command))
		usage()
		os.Exit(2)
	}
}

func fatal(err error) {
	ui.PrintError(err.Error())
	os.Exit(1)
}

func requireSite(site string) {
	if site == "" {
		ui.PrintError("-site is required for this command")
		os.Exit(2)
	}
}

func splitTypes(s string) []string {
	var types []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func runSites(store *db.Store) {
	sites, err := store.ListSites()
	if err != nil {
		fatal(err)
	}
	if len(sites) == 0 {
		fmt.Println("No sites registered. Use add-site to register one.")
		return
	}
	fmt.Println(ui.Header("Registered sites"))
	for i, s := range sites {
		fmt.Printf("  %d. %s  %s\n", i+1, s.Name, ui.Dim(s.URL))
	}
}

func runAddSite(store *db.Store, name, url, key string) {
	// Prompt for anything not supplied on the command line
	if name == "" || url == "" || key == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Site name").Value(&name),
			huh.NewInput().Title("Site URL").Value(&url),
			huh.NewInput().Title("API key").EchoMode(huh.EchoModePassword).Value(&key),
		)).WithTheme(ui.NewAppTheme())
		if err := form.Run(); err != nil {
			fatal(err)
		}
	}

	if err := store.AddSite(name, url, key); err != nil {
		fatal(err)
	}
	ui.PrintSuccess(fmt.Sprintf("Added site %s (%s)", name, url))
}

func runCacheStats(ctx context.Context, mgr *ops.Manager, site string) {
	client, err := mgr.Client(site)
	if err != nil {
		fatal(err)
	}

	// Warm the cache with a cheap read so stats mean something
	if _, err := client.GetContent(ctx, "page", "", 10); err != nil {
		fatal(err)
	}

	stats := client.CacheStats()
	fmt.Println(ui.Header("Cache statistics for " + site))
	fmt.Printf("  Entries:  %d\n", stats.Entries)
	fmt.Printf("  Size:     %.2f MB\n", stats.SizeMB)
	fmt.Printf("  TTL:      %ds\n", stats.TTLSeconds)
}

type searchReplaceArgs struct {
	site            string
	search          string
	replace         string
	postTypes       []string
	apply           bool
	skipConfirm     bool
	caseInsensitive bool
}

func runSearchReplace(ctx context.Context, mgr *ops.Manager, store *db.Store, args searchReplaceArgs) {
	if args.search == "" {
		ui.PrintError("-search is required")
		os.Exit(2)
	}

	content, err := mgr.Content(args.site)
	if err != nil {
		fatal(err)
	}
	content.Index = store

	progress := func(current, total int, message string) {
		fmt.Printf("\r%s", ui.Dim(fmt.Sprintf("[%d/%d] %s", current, total, ui.Truncate(message, 60))))
	}

	// Always preview first so the operator reviews the blast radius
	preview, err := content.SearchReplaceContent(ctx, ops.SearchReplaceOptions{
		Search:          args.search,
		Replace:         args.replace,
		PostTypes:       args.postTypes,
		DryRun:          true,
		CaseInsensitive: args.caseInsensitive,
		Progress:        progress,
	})
	fmt.Println()
	if err != nil {
		fatal(err)
	}

	printResult(preview)
	if len(preview.Changes) == 0 {
		return
	}
	if !args.apply {
		fmt.Println(ui.Dim("Dry run only. Re-run with -apply to make these changes."))
		return
	}

	if !args.skipConfirm {
		confirmed := false
		prompt := huh.NewConfirm().
			Title(fmt.Sprintf("Replace %q with %q in %d items on %s?",
				args.search, args.replace, len(preview.Changes), args.site)).
			Value(&confirmed)
		if err := prompt.Run(); err != nil {
			fatal(err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return
		}
	}

	// Snapshot the affected items before mutating anything
	ids := make([]int, 0, len(preview.Changes))
	for _, c := range preview.Changes {
		ids = append(ids, c.ID)
	}
	snap, err := content.BackupBeforeBulkOperation(ctx, ids)
	if err != nil {
		fatal(fmt.Errorf("refusing to continue without a backup: %w", err))
	}
	ui.PrintSuccess(fmt.Sprintf("Backed up %d items to %s", snap.Count, snap.File))

	applied, err := content.SearchReplaceContent(ctx, ops.SearchReplaceOptions{
		Search:          args.search,
		Replace:         args.replace,
		PostTypes:       args.postTypes,
		CaseInsensitive: args.caseInsensitive,
		Progress:        progress,
	})
	fmt.Println()
	if err != nil {
		fatal(err)
	}
	printResult(applied)
	ui.PrintSuccess(fmt.Sprintf("Modified %d items", applied.PostsModified))
}

func printResult(result *models.SearchReplaceResult) {
	mode := "applied"
	if result.DryRun {
		mode = "dry run"
	}
	fmt.Println(ui.Header(fmt.Sprintf("Search/replace (%s)", mode)))
	fmt.Printf("  Scanned:      %d items\n", result.TotalScanned)
	fmt.Printf("  Replacements: %d across %d items\n", result.TotalReplacements, len(result.Changes))
	for _, c := range result.Changes {
		fmt.Printf("    #%-6d %s %s\n", c.ID, ui.Truncate(c.Title, 48),
			ui.Dim(fmt.Sprintf("(title: %d, content: %d)", c.TitleReplacements, c.ContentReplacements)))
	}
	for _, e := range result.Errors {
		ui.PrintError(fmt.Sprintf("item %d failed: %s", e.ID, e.Message))
	}
}

func runBackup(ctx context.Context, mgr *ops.Manager, store *db.Store, site string) {
	content, err := mgr.Content(site)
	if err != nil {
		fatal(err)
	}
	content.Index = store

	var snap *models.BackupSnapshot
	action := func() {
		snap, err = content.BackupBeforeBulkOperation(ctx, nil)
	}
	if spinErr := spinner.New().Title("Backing up content...").Action(action).Run(); spinErr != nil {
		fatal(spinErr)
	}
	if err != nil {
		fatal(err)
	}
	ui.PrintSuccess(fmt.Sprintf("Backed up %d items to %s", snap.Count, snap.File))
}

func runListBackups(store *db.Store, site string) {
	backups, err := store.ListBackups(site)
	if err != nil {
		fatal(err)
	}
	if len(backups) == 0 {
		fmt.Println("No backups recorded for " + site)
		return
	}
	fmt.Println(ui.Header("Backups for " + site))
	for _, b := range backups {
		fmt.Printf("  %s  %s %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"), b.File,
			ui.Dim(fmt.Sprintf("(%d items)", b.Count)))
	}
}

func runUnusedMedia(ctx context.Context, mgr *ops.Manager, site string) {
	media, err := mgr.Media(site)
	if err != nil {
		fatal(err)
	}

	var report *models.MediaUsageReport
	action := func() {
		report, err = media.FindUnusedMedia(ctx)
	}
	if spinErr := spinner.New().Title("Scanning media usage...").Action(action).Run(); spinErr != nil {
		fatal(spinErr)
	}
	if err != nil {
		fatal(err)
	}

	fmt.Println(ui.Header("Media usage for " + site))
	fmt.Printf("  Media items:   %d\n", report.TotalMedia)
	fmt.Printf("  Content items: %d\n", report.TotalContent)
	fmt.Printf("  Unused:        %d\n", len(report.Unused))
	for _, m := range report.Unused {
		fmt.Printf("    #%-6d %s %s\n", m.ID, ui.Truncate(m.Title, 40), ui.Dim(m.SourceURL))
	}
}

func runRevisions(ctx context.Context, mgr *ops.Manager, site string, id int) {
	if id == 0 {
		ui.PrintError("-id is required")
		os.Exit(2)
	}

	content, err := mgr.Content(site)
	if err != nil {
		fatal(err)
	}

	revisions, err := content.RevisionHistory(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			ui.PrintError(fmt.Sprintf("Content %d not found on %s", id, site))
			os.Exit(1)
		}
		fatal(err)
	}

	if len(revisions) == 0 {
		fmt.Printf("No revisions for content %d\n", id)
		return
	}
	fmt.Println(ui.Header(fmt.Sprintf("Revisions for content %d", id)))
	for _, r := range revisions {
		fmt.Printf("  #%-6d %s %s\n", r.ID, r.Modified, ui.Dim(r.Author))
	}
	fmt.Println(ui.Dim("Use restore -id <id> -rev <revision> to roll back."))
}

func runRestore(ctx context.Context, mgr *ops.Manager, site string, id, revID int, skipConfirm bool) {
	if id == 0 || revID == 0 {
		ui.PrintError("-id and -rev are required")
		os.Exit(2)
	}

	content, err := mgr.Content(site)
	if err != nil {
		fatal(err)
	}

	if !skipConfirm {
		confirmed := false
		prompt := huh.NewConfirm().
			Title(fmt.Sprintf("Overwrite content %d on %s with revision %d?", id, site, revID)).
			Value(&confirmed)
		if err := prompt.Run(); err != nil {
			fatal(err)
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return
		}
	}

	if err := content.RestoreFromRevision(ctx, id, revID); err != nil {
		if api.IsNotFound(err) {
			ui.PrintError(fmt.Sprintf("No revision %d for content %d on %s", revID, id, site))
			os.Exit(1)
		}
		fatal(err)
	}
	ui.PrintSuccess(fmt.Sprintf("Restored content %d to revision %d", id, revID))
}
