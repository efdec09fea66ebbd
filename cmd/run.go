package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tanq16/segdl/internal/config"
	"github.com/tanq16/segdl/internal/output"
	"github.com/tanq16/segdl/internal/scheduler"
	"github.com/tanq16/segdl/internal/utils"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentProbes bounds how many submissions probe at once.
const maxConcurrentProbes = 8

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func loadConfig() (config.Config, error) {
	if zeroCopy {
		settings.Set("strategy", "splice")
	}
	return config.Load(settings, configPath)
}

// run downloads every entry and returns the process exit code.
func run(entries []utils.DownloadEntry) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	logFile := cfg.LogFile
	if logFile == "" && !cfg.NoProgress {
		logFile = utils.LogFile
	}
	if err := utils.InitLogger(cfg.Debug, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		return 1
	}
	log := utils.GetLogger("cli")

	manager, err := scheduler.NewManager(cfg)
	if err != nil {
		output.PrintError(fmt.Sprintf("Error starting workers: %v", err))
		return 1
	}
	display := output.NewManager(os.Stdout, cfg.ProgressInterval)
	if !cfg.NoProgress {
		display.StartDisplay()
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	paths := utils.ReservePaths(entries, cfg.OutputDir)
	for i, entry := range entries {
		path := paths[i]
		g.Go(func() error {
			id, err := manager.SubmitURL(context.Background(), entry.URL, path)
			if err != nil {
				log.Error().Err(err).Str("url", entry.URL).Msg("Submission failed")
				display.ReportError(entry.URL, err)
				return nil
			}
			rec, err := manager.Snapshot(id)
			if err != nil {
				display.ReportError(entry.URL, err)
				return nil
			}
			display.Track(path, rec)
			return nil
		})
	}
	g.Wait()

	manager.Shutdown()
	display.StopDisplay()
	if failures := display.Failures(); failures > 0 {
		log.Error().Int("failures", failures).Msg("Run finished with failures")
		output.PrintError("Encountered failed download(s)")
		return 1
	}
	log.Info().Int("downloads", len(entries)).Msg("All downloads complete")
	return 0
}
