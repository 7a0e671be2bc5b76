// Command import loads a syllabus file (.xlsx, .yaml) into the configured
// store, or writes an .xlsx template.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/aliskhannn/study-planner-bot/internal/app"
	"github.com/aliskhannn/study-planner-bot/internal/config"
	"github.com/aliskhannn/study-planner-bot/internal/importer"
	"github.com/aliskhannn/study-planner-bot/internal/logger"
)

func main() {
	flags := pflag.NewFlagSet("import", pflag.ExitOnError)
	file := flags.StringP("file", "f", "", "syllabus file to import (.xlsx, .yaml, .yml)")
	subject := flags.StringP("subject", "s", "", "subject id, defaults to the file's subject or name")
	template := flags.String("template", "", "convert --file to an .xlsx workbook at this path instead of importing")
	dryRun := flags.Bool("dry-run", false, "validate without storing")
	flags.String("database.driver", config.DriverPostgres, "store: postgres, sqlite or memory")
	flags.String("database.sqlite_path", "data/study.db", "database file for the sqlite driver")

	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import --file syllabus.xlsx [--subject id] [--dry-run] [--template out.xlsx]")
		flags.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(config.Options{Flags: flags})
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg, *file, *subject, *template, *dryRun); err != nil {
		lg.Fatal("import failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger, file, subject, template string, dryRun bool) error {
	s, err := importer.ParseFile(file, subject)
	if err != nil {
		return err
	}

	if template != "" {
		return writeTemplate(template, s)
	}

	if dryRun {
		g, err := s.Validate()
		if err != nil {
			return err
		}
		lg.Info("syllabus is valid",
			zap.String("subject_id", s.SubjectID),
			zap.Int("topics", g.Len()),
			zap.Int("layers", len(g.Layers())),
		)
		return nil
	}

	store, closeStore, err := app.OpenStore(ctx, cfg.DB, lg)
	if err != nil {
		return err
	}
	defer closeStore()

	_, err = importer.New(store, lg).Import(ctx, s)
	return err
}

func writeTemplate(path string, s *importer.Syllabus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := importer.WriteXLSX(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
