package app

import (
	"context"
	"fmt"

	"github.com/chris-collard/fidle/internal/catalog"
	"github.com/chris-collard/fidle/internal/ctxlog"
	"github.com/chris-collard/fidle/internal/htmlreport"
	"github.com/chris-collard/fidle/internal/runner"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case CmdRun:
		err = runner.New(a.exec).RunProfile(ctx, runner.Options{
			ProfilePath: a.config.ProfilePath,
			TopDir:      a.config.TopDir,
			Filter:      a.config.Filter,
			Reset:       a.config.Reset,
		})
	case CmdReport:
		err = htmlreport.Build(ctx, htmlreport.Options{
			ProfilePath: a.config.ProfilePath,
			TopDir:      a.config.TopDir,
			HeaderLogo:  a.config.HeaderLogo,
			FooterLogo:  a.config.FooterLogo,
		})
	case CmdCatalog:
		err = a.buildCatalog(ctx)
	case CmdProfile:
		err = catalog.BuildDefaultProfile(ctx, a.config.CatalogPath, a.config.OutPath, a.config.OutputTag)
	case CmdTrain:
		err = a.runTraining(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	if err != nil {
		return fmt.Errorf("%s failed: %w", a.config.Command, err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// buildCatalog scans the course directories and saves the catalog file.
func (a *App) buildCatalog(ctx context.Context) error {
	cat, err := catalog.Scan(ctx, a.config.TopDir, a.config.Dirs)
	if err != nil {
		return err
	}
	if err := cat.Save(a.config.CatalogPath); err != nil {
		return err
	}
	a.logger.Info("Catalog saved.", "path", a.config.CatalogPath, "entries", cat.Len())
	return nil
}
