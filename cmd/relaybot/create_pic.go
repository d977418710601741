package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-relay-bot/pkg/command"
	"ai-relay-bot/pkg/imagegen"

	"github.com/spf13/cobra"
)

func newCreatePicCmd() *cobra.Command {
	var (
		outDir  string
		baseURL string
		apiKey  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create-pic <model> <width> <height> <prompt...>",
		Short: "Generate one image without the language model and write it to a file",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := command.ParseCreatePic(command.PrefixCreatePic + " " + strings.Join(args, " "))
			if err != nil {
				return err
			}

			pool := imagegen.NewPool(imagegen.NewPollinationsClient(baseURL, apiKey, timeout), 1, timeout)
			img, err := pool.Generate(context.Background(), imagegen.Request{
				Model:  req.Model,
				Width:  req.Width,
				Height: req.Height,
				Prompt: req.Prompt,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", imagegen.Classify(err), err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(outDir, img.Filename())
			if err := os.WriteFile(path, img.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(img.Data))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&outDir, "out", ".", "directory to write the image to")
	flags.StringVar(&baseURL, "base-url", envOr("IMAGE_BASE_URL", imagegen.DefaultBaseURL), "image backend base URL")
	flags.StringVar(&apiKey, "api-key", os.Getenv("POLLINATIONS_API_KEY"), "image backend API key")
	flags.DurationVar(&timeout, "timeout", imagegen.DefaultTimeout, "generation timeout")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
