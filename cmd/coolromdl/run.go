package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coolromdl/internal/downloader"
	"coolromdl/pkg/archive"
	"coolromdl/pkg/config"
	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"
	"coolromdl/pkg/models"
	"coolromdl/pkg/pipeline"
	"coolromdl/pkg/ui"
)

var (
	consoleIndex int
	letter       string
	search       string
	romIndices   []int
	outputDir    string
	clean        bool
	owner        string
	perms        string
	baseURL      string
	rateLimit    int
)

func init() {
	flags := rootCmd.Flags()
	flags.IntVarP(&consoleIndex, "console", "c", -1, "console number to browse")
	flags.StringVarP(&letter, "letter", "l", "", "first letter of the items to list")
	flags.StringVarP(&search, "search", "s", "", "search every letter for items containing this text")
	flags.IntSliceVarP(&romIndices, "rom", "r", nil, "item number(s) to download, e.g. -r 3,5 or -r 3 5")
	flags.StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: current directory)")
	flags.BoolVarP(&clean, "clean", "C", false, "remove archives after successful extraction")
	flags.StringVarP(&owner, "user", "u", "", "chown extracted files to this user and its same-named group")
	flags.StringVarP(&perms, "perms", "p", "", "chmod extracted files recursively, e.g. 755")
	flags.StringVar(&baseURL, "base-url", "", "catalog site root")
	flags.IntVar(&rateLimit, "rate-limit", 0, "catalog requests per minute (0 keeps the configured value)")
}

// Catalog is what the interactive flow needs from the pipeline
type Catalog interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListItems(ctx context.Context, category, letter string) (*models.Listing, error)
	SearchItems(ctx context.Context, category, term string) (*models.Listing, error)
	Download(ctx context.Context, task models.DownloadTask) (pipeline.Outcome, error)
}

// selection carries the non-interactive choices
type selection struct {
	console    int
	hasConsole bool
	letter     string
	search     string
	roms       []int
}

type app struct {
	catalog  Catalog
	prompter *Prompter
	task     models.DownloadTask
	logger   logger.Logger
}

func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("clean") {
		flags["clean"] = clean
	}
	if owner != "" {
		flags["user"] = owner
	}
	if perms != "" {
		flags["perms"] = perms
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if baseURL != "" {
		flags["base-url"] = baseURL
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["requests-per-minute"] = rateLimit
	}
	return flags
}

func runDownload(cmd *cobra.Command, args []string) error {
	extra, err := parseIndices(args)
	if err != nil {
		return err
	}
	if len(extra) > 0 && !cmd.Flags().Changed("rom") {
		return fmt.Errorf("unexpected arguments %v; item numbers go after --rom", args)
	}

	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("coolromdl starting")

	task, err := taskTemplate(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	prompter := NewPrompter(os.Stdin, ui.Output)
	defer prompter.Close()

	a := &app{
		catalog:  p,
		prompter: prompter,
		task:     task,
		logger:   log,
	}

	ui.PrintLogo()
	return a.run(ctx, selection{
		console:    consoleIndex,
		hasConsole: cmd.Flags().Changed("console"),
		letter:     letter,
		search:     search,
		roms:       append(romIndices, extra...),
	})
}

// taskTemplate carries the per-run settings shared by every download
func taskTemplate(cfg *config.Config) (models.DownloadTask, error) {
	task := models.DownloadTask{
		OutputDir: cfg.Download.OutputDir,
		Clean:     cfg.Download.Clean,
		Owner:     cfg.Extract.Owner,
	}
	if cfg.Extract.Permissions != "" {
		mode, err := archive.ParseMode(cfg.Extract.Permissions)
		if err != nil {
			return task, err
		}
		task.Mode = mode
		task.HasMode = true
	}
	return task, nil
}

func (a *app) run(ctx context.Context, sel selection) error {
	fmt.Fprintln(ui.Output, "\n== CONSOLE SELECT ==")
	categories, err := a.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return fmt.Errorf("the catalog lists no consoles")
	}
	ui.PrintMenu(categories)

	idx := sel.console
	if sel.hasConsole && idx >= 0 && idx < len(categories) {
		ui.PrintInfo("[+] Console selected via CLI", categories[idx])
	} else {
		if idx, err = a.prompter.ReadIndex(ctx, "Input console number:", len(categories)); err != nil {
			return err
		}
	}
	category := categories[idx]

	items, err := a.listItems(ctx, category, sel)
	if err != nil {
		return err
	}
	if items.Len() == 0 {
		if sel.search != "" {
			ui.PrintWarning(fmt.Sprintf("[-] No ROMs found matching: %q", sel.search))
		} else {
			ui.PrintWarning("[-] No ROMs listed under this letter")
		}
		return nil
	}

	fmt.Fprintln(ui.Output, "\n== ROM SELECT ==")
	ui.PrintMenu(items.Names())

	var selected []int
	if len(sel.roms) > 0 {
		selected = filterIndices(sel.roms, items.Len())
	} else {
		if selected, err = a.prompter.ReadIndices(ctx, "Input rom number(s):", items.Len()); err != nil {
			return err
		}
	}

	tasks := make([]models.DownloadTask, 0, len(selected))
	for _, i := range selected {
		ref, _ := items.At(i)
		task := a.task
		task.Item = ref
		tasks = append(tasks, task)
	}

	fmt.Fprintln(ui.Output, "\n== ROM DOWNLOAD ==")
	return a.download(ctx, category, tasks)
}

func (a *app) listItems(ctx context.Context, category string, sel selection) (*models.Listing, error) {
	if sel.search != "" {
		ui.PrintInfo("[+] Searching for ROMs matching", sel.search)
		return a.catalog.SearchItems(ctx, category, sel.search)
	}

	l, ok := normalizeLetter(sel.letter)
	if ok {
		ui.PrintInfo("[+] ROM letter selected via CLI", l)
	} else {
		fmt.Fprintln(ui.Output, "\n== ROM SEARCH ==")
		var err error
		if l, err = a.prompter.ReadLetter(ctx, "Input rom letter:"); err != nil {
			return nil, err
		}
	}
	return a.catalog.ListItems(ctx, category, l)
}

func (a *app) download(ctx context.Context, category string, tasks []models.DownloadTask) error {
	summary := ui.NewRunSummary()

	queue := downloader.NewQueue(a.catalog, a.logger)
	queue.OnResult(func(r downloader.DownloadResult) {
		var written int64
		if r.Outcome.Download != nil {
			written = r.Outcome.Download.Written
		}
		summary.Record(written, r.Outcome.Extracted, r.Error)
		reportResult(category, r)
	})

	_, err := queue.Run(ctx, tasks)
	summary.Print()
	return err
}

func reportResult(category string, r downloader.DownloadResult) {
	ui.PrintInfo("Console", category)
	ui.PrintInfo("Rom", r.Job.Task.Item.Name)

	d := r.Outcome.Download
	switch {
	case errors.IsCancelled(r.Error):
		if d != nil {
			ui.PrintWarning("Download cancelled. Leftover file deleted.")
		} else {
			ui.PrintWarning("Download cancelled.")
		}
	case d == nil:
		ui.PrintError("[-] Download failed", r.Error)
	case errors.IsType(r.Error, errors.ErrorTypeExtraction):
		ui.PrintSuccess("[+] Download complete: " + d.Filename)
		ui.PrintError("[-] Extraction failed", r.Error)
	case r.Error != nil:
		ui.PrintError("[-] Download failed", r.Error)
	case r.Outcome.Extracted:
		ui.PrintSuccess("[+] Download complete: " + d.Filename)
		ui.PrintSuccess("[+] Extracted to " + r.Job.Task.OutputDir)
	default:
		ui.PrintSuccess("[+] Download complete: " + d.Filename)
	}
}
