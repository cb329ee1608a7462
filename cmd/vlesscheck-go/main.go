package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/DarkFirexs/Parser/internal/checker"
	"github.com/DarkFirexs/Parser/internal/collector"
	"github.com/DarkFirexs/Parser/internal/config"
	"github.com/DarkFirexs/Parser/internal/logging"
	"github.com/DarkFirexs/Parser/internal/output"
	"github.com/DarkFirexs/Parser/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		verbose   bool
		inputFile string
		showRows  int
	)

	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of concurrent checks")
	flag.IntVar(&cfg.TopN, "top", cfg.TopN, "size of the top-N output files")
	flag.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for configs*.txt and stats.json")
	flag.StringVar(&cfg.ListsFile, "lists", cfg.ListsFile, "optional YAML file with sources / allowed_sni / preferred_transports")
	flag.StringVar(&cfg.GeoIPPath, "geoip", cfg.GeoIPPath, "optional MaxMind country database, tried before the HTTP lookup")
	flag.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "TCP probe timeout")
	flag.StringVar(&inputFile, "input", "", "read descriptors from a local file instead of the remote sources")
	flag.IntVar(&showRows, "show", 20, "rows of the results table printed to stdout (0 disables)")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logs")

	flag.Parse()

	log := logging.NewLogger(cfg.LogLevel, verbose)

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	lists, err := config.LoadLists(cfg.ListsFile)
	if err != nil {
		log.Error("failed to load lists", "err", err)
		os.Exit(1)
	}

	log.Info("starting vlesscheck-go",
		"sources", len(lists.Sources),
		"allowed_sni", len(lists.AllowedServerNames),
		"workers", cfg.Workers,
		"probe_timeout", cfg.ProbeTimeout.String(),
		"input", inputFile,
	)

	var src pipeline.Source = collector.New(lists.Sources, cfg.FetchTimeout, log)
	if inputFile != "" {
		src = collector.File{Path: inputFile, Log: log}
	}

	var locators checker.Chain
	if cfg.GeoIPPath != "" {
		db, err := checker.OpenGeoIP(cfg.GeoIPPath)
		if err != nil {
			log.Warn("geoip database unavailable, using http lookup only", "err", err)
		} else {
			defer db.Close()
			locators = append(locators, db)
		}
	}
	locators = append(locators, checker.NewIPAPI(cfg.GeoAPIURL, cfg.GeoTimeout, cfg.GeoRatePerMinute))

	chk := checker.New(lists.Policy(), checker.NewTCPProber(cfg.ProbeTimeout), locators, checker.WithLogger(log))
	policy := chk.Policy()
	log.Info("checker policy",
		"security", policy.Security,
		"allowed_sni", len(policy.AllowedServerNames),
		"preferred_transports", policy.PreferredTransports,
		"flow_marker", policy.FlowMarker,
	)

	report := pipeline.New(src, chk, cfg.Workers, cfg.TopN, log).Run(context.Background())

	log.Info("run finished",
		"duration_minutes", report.Stats.DurationMinutes,
		"collected", report.Stats.Collected,
		"unique", report.Stats.Unique,
		"passed", report.Stats.Passed,
	)

	// Print table and summary to stdout
	if showRows > 0 {
		output.PrintResultsTable(os.Stdout, report.Valid, showRows)
	}
	output.PrintSummary(os.Stdout, report.Stats)

	written, err := output.WriteAll(cfg.OutputDir, report)
	if err != nil {
		log.Error("failed to write output files", "err", err, "dir", cfg.OutputDir)
		os.Exit(1)
	}
	log.Info("results written", "dir", cfg.OutputDir, "files", written)
}
