package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"resume-analyzer-web/internal/background"
	"resume-analyzer-web/internal/shared/storage/object/local"
)

var errBackgroundUnavailable = errors.New("background image unavailable")

func newBackgroundCmd() *cobra.Command {
	var (
		out string
		url string
	)
	cmd := &cobra.Command{
		Use:   "background",
		Short: "Fetch one background image into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if url == "" {
				url = cfg.BackgroundURL
			}
			if out == "" {
				out = cfg.LocalStoreDir
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store := local.New(out)
			loader := background.NewLoader(url, store, "cli", nil)
			loader.Load(ctx)

			img, ok := loader.Image()
			if !ok {
				return errBackgroundUnavailable
			}
			p, err := store.Path(img.Key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %d bytes)\n", p, img.ContentType, img.Size)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory to save the image in (defaults to LOCAL_STORE_DIR)")
	cmd.Flags().StringVar(&url, "url", "", "Image URL (defaults to BACKGROUND_URL)")
	return cmd
}
