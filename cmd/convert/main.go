package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"marketpulse/internal/config"
	"marketpulse/internal/files"
	"marketpulse/internal/infrastructure"
	"marketpulse/internal/loader"
	"marketpulse/internal/schema"
	"marketpulse/pkg/contracts"
)

func main() {
	in := flag.String("in", "", "Excel workbook or directory of workbooks to convert")
	out := flag.String("out", "", "target CSV file or directory (defaults alongside the input)")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: convert -in <file.xlsx|dir> [-out <file.csv|dir>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	normalizer, err := schema.NewNormalizer(logger)
	if err != nil {
		logger.Error("schema load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	l := loader.New(normalizer, logger)

	ctx := infrastructure.EnsureTraceID(context.Background())

	targets, err := collectWorkbooks(*in)
	if err != nil {
		logger.Error("input scan failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(targets) == 0 {
		fmt.Println("no Excel workbooks to convert")
		return
	}

	failed := 0
	for _, source := range targets {
		target := csvTarget(source, *in, *out)
		if err := l.Convert(ctx, source, target); err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", filepath.Base(source), err)
			continue
		}
		fmt.Printf("OK    %s -> %s\n", filepath.Base(source), target)
	}

	fmt.Printf("converted %d of %d workbook(s)\n", len(targets)-failed, len(targets))
	if failed > 0 {
		os.Exit(1)
	}
}

// collectWorkbooks resolves the input flag to a list of workbook paths.
func collectWorkbooks(in string) ([]string, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{in}, nil
	}

	found, err := files.NewDiscovery(in).FindByPattern("*.xlsx")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, f := range found {
		if strings.HasPrefix(f.Name, "~$") {
			continue
		}
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// csvTarget derives the output CSV path for one workbook.
func csvTarget(source, in, out string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".csv"
	switch {
	case out == "":
		return filepath.Join(filepath.Dir(source), base)
	case strings.EqualFold(filepath.Ext(out), ".csv"):
		return out
	default:
		return filepath.Join(out, base)
	}
}
