package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"resume-analyzer-web/internal/analysis"
	"resume-analyzer-web/internal/fileref"
	"resume-analyzer-web/internal/render"
	"resume-analyzer-web/internal/shared/storage/object/local"
	"resume-analyzer-web/internal/view"
)

type analyzeOptions struct {
	endpoint      string
	field         string
	format        string
	settleDelay   time.Duration
	timeout       time.Duration
	background    bool
	backgroundOut string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a resume file",
		Long:  "Uploads a resume to the analysis service and prints the rendered result. Exits non-zero when the analysis fails.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", "", "Analysis endpoint (defaults to ANALYZE_ENDPOINT)")
	cmd.Flags().StringVar(&opts.field, "field", "", "Multipart field name (defaults to ANALYZE_FIELD)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().DurationVar(&opts.settleDelay, "settle-delay", 0, "Pause after a successful response (defaults to ANALYZE_SETTLE_DELAY)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Overall request timeout; 0 waits indefinitely")
	cmd.Flags().BoolVar(&opts.background, "background", false, "Also fetch a background image into LOCAL_STORE_DIR")
	cmd.Flags().StringVar(&opts.backgroundOut, "background-out", "", "Also fetch a background image into this directory")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if opts.endpoint != "" {
		cfg.AnalyzeEndpoint = opts.endpoint
	}
	if opts.field != "" {
		cfg.AnalyzeField = opts.field
	}
	if cmd.Flags().Changed("settle-delay") {
		cfg.SettleDelay = opts.settleDelay
	}

	ref, err := fileref.FromFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Selected %s\n", ref.Summary())

	deps := view.Deps{
		Analyzer:    analysis.NewClient(cfg.AnalyzeEndpoint, cfg.AnalyzeField, nil),
		SettleDelay: cfg.SettleDelay,
	}
	var bgStore *local.Store
	if opts.background || opts.backgroundOut != "" {
		dir := opts.backgroundOut
		if dir == "" {
			dir = cfg.LocalStoreDir
		}
		bgStore = local.New(dir)
		deps.Store = bgStore
		deps.BackgroundURL = cfg.BackgroundURL
		deps.BackgroundEnabled = true
	}
	v := view.NewFactory(deps).New("cli")
	defer v.Upload().Close()
	v.Upload().SelectFile(ref)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	var g errgroup.Group
	g.Go(func() error {
		v.Mount(ctx)
		v.WaitBackground()
		return nil
	})
	g.Go(func() error {
		return v.Upload().Analyze(ctx)
	})
	analyzeErr := g.Wait()

	if bgStore != nil {
		if img, ok := v.Background(); ok {
			if p, err := bgStore.Path(img.Key); err == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Background saved to %s\n", p)
			}
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Background unavailable")
		}
	}

	if analyzeErr != nil {
		return fmt.Errorf("analysis failed: %w", analyzeErr)
	}
	return writeResult(cmd.OutOrStdout(), v.Upload().State().Result, format)
}

func writeResult(w io.Writer, res *analysis.Result, format string) error {
	if format == "json" {
		if len(res.Raw) > 0 {
			_, err := fmt.Fprintln(w, string(res.Raw))
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return render.WriteText(w, render.Build(res))
}
