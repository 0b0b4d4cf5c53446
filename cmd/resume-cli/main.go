package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"github.com/talentscan/talentscan-backend/internal/resume/app"
	"github.com/talentscan/talentscan-backend/internal/resume/export"
	"github.com/talentscan/talentscan-backend/internal/resume/service"
	"github.com/talentscan/talentscan-backend/pkg/config"
	"github.com/talentscan/talentscan-backend/pkg/database"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/messaging"
)

const usage = `usage: resume-cli <command> [flags]

commands:
  ingest -dir <path>                 ingest every resume in a directory
  list                               print stored candidates, newest first
  export -format json|xlsx -out <f>  write the candidate dump to a file
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load("resume-cli")
	if err != nil {
		color.Red("failed to load config: %v", err)
		os.Exit(1)
	}

	log := logger.Nop()
	if os.Getenv("TALENTSCAN_CLI_VERBOSE") != "" {
		log = logger.New("resume-cli", "development")
	}

	ctx := context.Background()
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		color.Red("failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	components, err := app.Build(ctx, cfg, db, messaging.NopPublisher{}, log)
	if err != nil {
		color.Red("failed to initialize: %v", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		err = runIngest(ctx, components, os.Args[2:])
	case "list":
		err = runList(ctx, components)
	case "export":
		err = runExport(ctx, components, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func runIngest(ctx context.Context, c *app.Components, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	dir := fs.String("dir", ".", "directory holding resume files")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", *dir, err)
	}

	var uploads []service.Upload
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		uploads = append(uploads, service.Upload{Path: filepath.Join(*dir, e.Name()), Filename: e.Name()})
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].Filename < uploads[j].Filename })

	color.Cyan("\nIngesting %d files from %s", len(uploads), *dir)
	report := c.Ingest.IngestBatch(ctx, uploads)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Processed", "Created", "Updated", "Skipped", "Failed"})
	table.Append([]string{
		fmt.Sprint(report.Processed),
		fmt.Sprint(report.Created),
		fmt.Sprint(report.Updated),
		fmt.Sprint(len(report.Skipped)),
		fmt.Sprint(len(report.Failed)),
	})
	table.Render()

	if len(report.Failed) > 0 {
		color.Yellow("\nFiles without a record")
		failed := tablewriter.NewWriter(os.Stdout)
		failed.SetHeader([]string{"File", "Reason"})
		failed.SetColWidth(80)
		for _, f := range report.Failed {
			failed.Append([]string{f.Filename, f.Reason})
		}
		failed.Render()
	}

	total, err := c.Candidates.Count(ctx)
	if err != nil {
		return fmt.Errorf("count candidates: %w", err)
	}
	color.Green("\nDone. %d candidates stored.", total)
	return nil
}

func runList(ctx context.Context, c *app.Components) error {
	candidates, err := c.Candidates.List(ctx)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}

	color.Yellow("\n%d candidates", len(candidates))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Email", "Phone", "Degree", "Department", "College", "Passed Out", "Updated"})
	for _, cand := range candidates {
		table.Append([]string{
			cand.Name,
			cand.Email,
			cand.Phone,
			cand.Degree,
			cand.Department,
			cand.College,
			cand.YearPassing,
			cand.LastUpdated.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func runExport(ctx context.Context, c *app.Components, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", string(export.FormatXLSX), "json or xlsx")
	out := fs.String("out", "", "output file (defaults to the download name)")
	_ = fs.Parse(args)

	f := export.Format(*format)
	if f != export.FormatJSON && f != export.FormatXLSX {
		return fmt.Errorf("unknown format %q", *format)
	}

	file, err := c.Exporter.Export(ctx, f)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = file.Name
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	color.Green("Wrote %s (%d bytes)", path, len(file.Data))
	return nil
}
