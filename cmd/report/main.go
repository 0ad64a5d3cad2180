package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"marketpulse/internal/config"
	"marketpulse/internal/exporter"
	"marketpulse/internal/infrastructure"
	"marketpulse/internal/loader"
	"marketpulse/internal/metrics"
	"marketpulse/internal/schema"
	"marketpulse/internal/validation"
	"marketpulse/pkg/contracts"
	"marketpulse/pkg/contracts/domain"
)

func main() {
	dataDir := flag.String("data", "", "directory holding the public use files (defaults to configured data dir)")
	outDir := flag.String("out", "", "directory for report output (defaults to configured reports dir)")
	topN := flag.Int("top", 10, "how many states/counties in the rankings")
	format := flag.String("format", "both", "report output format: csv | json | both")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
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

	logger.Info("starting report run", slog.String("version", contracts.GetVersionString()))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		logger.Error("path resolution failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dataDir == "" {
		*dataDir = paths.DataDir
	}
	if *outDir != "" {
		paths.ReportsDir = *outDir
	}

	params := validation.ReportParams{TopN: *topN, Format: *format}
	if err := validation.NewParamsValidator().Validate(params); err != nil {
		logger.Error("invalid parameters", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fv := validation.NewFileValidator(logger)
	if err := fv.ValidateInputDirectory(*dataDir); err != nil {
		logger.Error("input validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := fv.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		logger.Error("output validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := infrastructure.EnsureTraceID(context.Background())

	var pipelineMetrics *infrastructure.PipelineMetrics
	if cfg.Telemetry.Enabled {
		providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
		if err != nil {
			logger.Warn("telemetry init failed, continuing without",
				slog.String("error", err.Error()))
		} else {
			defer providers.Shutdown(context.Background())
			pipelineMetrics, err = infrastructure.CreatePipelineMetrics(providers.Meter)
			if err != nil {
				logger.Warn("metric registration failed", slog.String("error", err.Error()))
			}
		}
	}

	normalizer, err := schema.NewNormalizer(logger)
	if err != nil {
		logger.Error("schema load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loaderOpts := []loader.Option{loader.WithMetrics(pipelineMetrics)}
	if !cfg.Cache.Enabled {
		loaderOpts = append(loaderOpts, loader.WithCacheDisabled())
	}
	l := loader.New(normalizer, logger, loaderOpts...)

	bundle, err := l.LoadBundle(ctx, *dataDir)
	if err != nil {
		logger.Error("bundle load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	engine := metrics.New(logger, metrics.WithMetrics(pipelineMetrics))
	report := buildReport(ctx, engine, bundle, params.TopN)

	writer := exporter.NewCSVWriter(paths)
	if err := writeReport(writer, report, bundle, params.Format); err != nil {
		logger.Error("report write failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	printSummary(report, *dataDir, paths.ReportsDir)
}

// buildReport runs the metric suite over the bundle. Metrics undefined for
// this data are skipped; the loaders' diagnostics always make it in.
func buildReport(ctx context.Context, engine *metrics.Engine, bundle *loader.Bundle, topN int) *domain.Report {
	report := &domain.Report{GeneratedAt: time.Now().UTC(), TopN: topN}

	for _, category := range bundle.Categories() {
		report.AddDiagnostics(category, bundle.Table(category).Diagnostics())
	}

	state, county, plan := bundle.State, bundle.County, bundle.PlanDesign

	kpis := []func() (domain.Scalar, error){
		func() (domain.Scalar, error) { return engine.TotalEnrollment(ctx, state) },
		func() (domain.Scalar, error) { return engine.AverageMonthlyPremium(ctx, state) },
		func() (domain.Scalar, error) { return engine.PercentWithAPTC(ctx, state) },
		func() (domain.Scalar, error) { return engine.ParticipatingStates(ctx, state) },
		func() (domain.Scalar, error) { return engine.AverageAPTC(ctx, state) },
		func() (domain.Scalar, error) { return engine.EnrolleeWeightedPlanAvailability(ctx, state) },
		func() (domain.Scalar, error) { return engine.GrossNetPremiumGap(ctx, state) },
		func() (domain.Scalar, error) { return engine.MarketPenetration(ctx, county) },
		func() (domain.Scalar, error) { return engine.AffordabilityRatio(ctx, county) },
		func() (domain.Scalar, error) { return engine.HSAEligibleShare(ctx, plan) },
		func() (domain.Scalar, error) { return engine.SelectionWeightedDeductible(ctx, plan) },
		func() (domain.Scalar, error) { return engine.SelectionWeightedMOOP(ctx, plan) },
	}
	for _, compute := range kpis {
		if s, err := compute(); err == nil {
			report.AddKPI(s)
		}
	}

	metalSource := state
	if metalSource == nil {
		metalSource = plan
	}
	distributions := []func() (domain.GroupedSeries, error){
		func() (domain.GroupedSeries, error) { return engine.MetalLevelDistribution(ctx, metalSource) },
		func() (domain.GroupedSeries, error) { return engine.AgeDistribution(ctx, state) },
		func() (domain.GroupedSeries, error) { return engine.GenderBreakdown(ctx, state) },
		func() (domain.GroupedSeries, error) { return engine.RuralShare(ctx, state) },
		func() (domain.GroupedSeries, error) { return engine.NewVersusReturning(ctx, state) },
		func() (domain.GroupedSeries, error) { return engine.PlatformDistribution(ctx, state) },
		func() (domain.GroupedSeries, error) { return engine.PlanValueScore(ctx, plan) },
	}
	for _, compute := range distributions {
		if s, err := compute(); err == nil {
			report.AddDistribution(s)
		}
	}

	rankings := []func() (domain.GroupedSeries, error){
		func() (domain.GroupedSeries, error) { return engine.TopStatesByEnrollment(ctx, state, topN) },
		func() (domain.GroupedSeries, error) { return engine.CountyConcentration(ctx, county, topN) },
		func() (domain.GroupedSeries, error) { return engine.RelativePenetration(ctx, county) },
	}
	for _, compute := range rankings {
		if s, err := compute(); err == nil {
			report.AddRanking(s)
		}
	}

	// Multi-year files yield one point per plan year; a single-vintage
	// bundle still produces a one-point trend.
	if state != nil {
		if tr, err := engine.EnrollmentTrend(ctx, state); err == nil {
			report.AddTrend(tr)
		}
		if tr, err := engine.PremiumTrend(ctx, state); err == nil {
			report.AddTrend(tr)
		}
	}

	return report
}

// writeReport writes the requested artifacts into the reports directory.
func writeReport(writer *exporter.CSVWriter, report *domain.Report, bundle *loader.Bundle, format string) error {
	if format == "json" || format == "both" {
		if err := writer.WriteReportJSON(report, "report.json"); err != nil {
			return err
		}
	}
	if format != "csv" && format != "both" {
		return nil
	}

	for _, category := range bundle.Categories() {
		name := fmt.Sprintf("normalized_%s.csv", category)
		if err := writer.WriteTableCSV(bundle.Table(category), name); err != nil {
			return err
		}
	}
	for _, series := range report.Distributions {
		if err := writer.WriteSeriesCSV(series, series.Name+".csv"); err != nil {
			return err
		}
	}
	for _, series := range report.Rankings {
		if err := writer.WriteSeriesCSV(series, series.Name+".csv"); err != nil {
			return err
		}
	}
	for _, trend := range report.Trends {
		if err := writer.WriteTrendCSV(trend, trend.Name+".csv"); err != nil {
			return err
		}
	}
	return nil
}

// printSummary prints the KPI table to stdout.
func printSummary(report *domain.Report, dataDir, reportsDir string) {
	fmt.Printf("Marketplace report over %s\n", dataDir)
	fmt.Printf("generated %s, output in %s\n\n", report.GeneratedAt.Format(time.RFC3339), reportsDir)

	if len(report.KPIs) == 0 {
		fmt.Println("no KPIs could be computed from the available files")
		return
	}
	for _, kpi := range report.KPIs {
		fmt.Printf("  %-32s %s\n", kpi.Name, exporter.FormatValue(kpi.Value, kpi.Unit))
	}
	fmt.Printf("\n%d distribution(s), %d ranking(s), %d trend(s) written\n",
		len(report.Distributions), len(report.Rankings), len(report.Trends))
}
