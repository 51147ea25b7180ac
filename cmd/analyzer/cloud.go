package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"resume-analyzer-web/internal/analysis"
	"resume-analyzer-web/internal/render"
	"resume-analyzer-web/internal/skillcloud"
)

var errNoSkills = errors.New("result has no skills to visualize")

type cloudOptions struct {
	format  string
	out     string
	frameMs int64
	seed    uint64
}

func newCloudCmd() *cobra.Command {
	var opts cloudOptions
	cmd := &cobra.Command{
		Use:   "cloud <result.json>",
		Short: "Render the skills cloud of a saved analysis result",
		Long:  "Reads an analysis result as returned by the service and writes its skills cloud as an animated SVG, the scene JSON, or one sampled frame.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCloud(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "Output format: svg, json or frame")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (defaults to stdout)")
	cmd.Flags().Int64Var(&opts.frameMs, "t", 0, "Elapsed milliseconds for --format frame")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed glyph placement for reproducible output (0 uses the clock)")
	return cmd
}

func runCloud(cmd *cobra.Command, path string, opts cloudOptions) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}
	res, err := analysis.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	rv := render.Build(res)

	var src rand.Source
	if opts.seed != 0 {
		src = rand.NewPCG(opts.seed, opts.seed)
	}
	viz := skillcloud.New(skillcloud.NewLayouter(src), skillcloud.DefaultAnimation())
	scene := viz.Mount(rv.SkillsCloud)
	if scene == nil {
		return errNoSkills
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "svg":
		return skillcloud.WriteSVG(w, scene, skillcloud.DefaultSVGOptions())
	case "json":
		return writeJSON(w, scene)
	case "frame":
		if opts.frameMs < 0 {
			return fmt.Errorf("--t must not be negative")
		}
		return writeJSON(w, scene.Frame(time.Duration(opts.frameMs)*time.Millisecond))
	default:
		return fmt.Errorf("unknown format %q (want svg, json or frame)", opts.format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
