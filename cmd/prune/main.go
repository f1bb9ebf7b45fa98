// Package main implements the prune CLI.
package main

import (
	"fmt"
	"go/token"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/prunelang/prune/pkg/bundle"
	"github.com/prunelang/prune/pkg/config"
	"github.com/prunelang/prune/pkg/depgraph"
	"github.com/prunelang/prune/pkg/engine"
	diag "github.com/prunelang/prune/pkg/errors"
	"github.com/prunelang/prune/pkg/report"
	"github.com/prunelang/prune/pkg/ui"
)

var version = "0.1.0-alpha"

func main() {
	rootCmd := &cobra.Command{
		Use:          "prune",
		Short:        "prune - unused-declaration elimination for a Go bundle",
		Version:      version,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintHelp(version)
		},
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		ui.PrintHelp(version)
	})
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintHelp(version)
		},
	})

	rootCmd.AddCommand(shrinkCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func shrinkCmd() *cobra.Command {
	var (
		output       string
		keepTags     []string
		reportFormat string
		explainMode  bool
	)

	cmd := &cobra.Command{
		Use:   "shrink [file.go...]",
		Short: "Remove unreachable declarations from a Go bundle",
		Long: `shrink parses one or more already-concatenated Go source fragments as a
single bundle, computes what main() (and any //go:keep-pinned declaration)
can reach, and rewrites the bundle with everything else deleted.

Example:
  prune shrink bundle.go                  # overwrite in place
  prune shrink -o out.go a.go b.go        # join two fragments, write out.go
  prune shrink --keep-tag debug bundle.go # preserve debug-guarded code
  prune shrink --explain bundle.go        # preview removals without deleting`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShrink(args, output, keepTags, reportFormat, explainMode)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: overwrite the first input file)")
	cmd.Flags().StringSliceVar(&keepTags, "keep-tag", nil, "Build-tag identifier whose guarded declarations must survive (repeatable)")
	cmd.Flags().StringVar(&reportFormat, "report", "", "Shrink report format: json, inline, or none (default: from .prune.toml)")
	cmd.Flags().BoolVar(&explainMode, "explain", false, "Annotate would-be removals with comment markers instead of deleting them")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of prune",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintVersionInfo(version)
		},
	}
}

func runShrink(files []string, output string, keepTags []string, reportFormat string, explainMode bool) error {
	cfg, err := config.Load(&config.Config{
		Prune:  config.PruneConfig{KeepTags: keepTags},
		Report: config.ReportConfig{Format: config.ReportFormat(reportFormat)},
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if output == "" {
		output = files[0]
	}

	runUI := ui.NewRunOutput()
	runUI.PrintHeader(version)
	runUI.PrintRunStart(len(files))
	runUI.PrintFileStart(files[0], output)

	loadStart := time.Now()
	b, err := bundle.LoadFiles(files)
	if err != nil {
		runUI.PrintStep(ui.Step{Name: "Load", Status: ui.StepError, Duration: time.Since(loadStart)})
		runUI.PrintSummary(false, err.Error())
		return err
	}
	runUI.PrintStep(ui.Step{Name: "Load", Status: ui.StepSuccess, Duration: time.Since(loadStart)})

	shrinkStart := time.Now()
	var (
		out           []byte
		declsRemoved  int
		guardsRemoved int
		rep           *report.Reporter
		diagnostics   []*diag.CompileError
		fset          *token.FileSet
		pinned        []depgraph.PinnedDecl
	)
	if explainMode {
		result, err := engine.Explain(b, cfg.Prune)
		if err != nil {
			runUI.PrintStep(ui.Step{Name: "Explain", Status: ui.StepError, Duration: time.Since(shrinkStart)})
			runUI.PrintSummary(false, err.Error())
			return err
		}
		out, rep, diagnostics, fset, pinned = result.Source, result.Report, result.Diagnostics, result.Fset, result.Pinned
	} else {
		result, err := engine.Optimize(b, cfg.Prune)
		if err != nil {
			runUI.PrintStep(ui.Step{Name: "Shrink", Status: ui.StepError, Duration: time.Since(shrinkStart)})
			runUI.PrintSummary(false, err.Error())
			return err
		}
		out, rep, declsRemoved, guardsRemoved = result.Source, result.Report, result.DeclsRemoved, result.GuardsRemoved
		diagnostics, fset, pinned = result.Diagnostics, result.Fset, result.Pinned
	}
	shrinkDuration := time.Since(shrinkStart)
	runUI.PrintStep(ui.Step{
		Name:     "Shrink",
		Status:   ui.StepSuccess,
		Duration: shrinkDuration,
		Message:  fmt.Sprintf("%d declarations removed, %d guards removed", declsRemoved, guardsRemoved),
	})
	for _, d := range diagnostics {
		runUI.PrintWarning(d.FormatWithPosition(fset))
	}
	for _, p := range pinned {
		runUI.PrintInfo(fmt.Sprintf("kept %s: %s", p.Name, p.Reason))
	}

	writeStart := time.Now()
	if err := os.WriteFile(output, out, 0644); err != nil {
		runUI.PrintStep(ui.Step{Name: "Write", Status: ui.StepError, Duration: time.Since(writeStart)})
		runUI.PrintSummary(false, err.Error())
		return fmt.Errorf("failed to write output: %w", err)
	}
	runUI.PrintStep(ui.Step{
		Name:     "Write",
		Status:   ui.StepSuccess,
		Duration: time.Since(writeStart),
		Message:  fmt.Sprintf("%d bytes written", len(out)),
	})

	if err := emitReport(cfg.Report.Format, output, declsRemoved, guardsRemoved, rep); err != nil {
		runUI.PrintWarning(fmt.Sprintf("failed to write report: %v", err))
	}

	runUI.PrintSummary(true, "")
	return nil
}

func emitReport(format config.ReportFormat, outputPath string, declsRemoved, guardsRemoved int, rep *report.Reporter) error {
	switch format {
	case config.ReportJSON:
		data, err := rep.Generate()
		if err != nil {
			return err
		}
		return os.WriteFile(outputPath+".prune.json", data, 0644)
	case config.ReportInline:
		fmt.Println(ui.Divider())
		fmt.Printf("  %d declarations removed, %d guards removed\n", declsRemoved, guardsRemoved)
		for _, e := range rep.Entries() {
			fmt.Printf("  - %s %s (lines %d-%d): %s\n", e.Kind, e.Name, e.StartLine, e.EndLine, e.Reason)
		}
		return nil
	default:
		return nil
	}
}
