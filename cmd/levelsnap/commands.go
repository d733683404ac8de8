package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/levelsnap-backend/internal/app"
	"github.com/yungbote/levelsnap-backend/internal/inference/config"
	"github.com/yungbote/levelsnap-backend/internal/pipeline"
	"github.com/yungbote/levelsnap-backend/internal/scene"
	"github.com/yungbote/levelsnap-backend/internal/services"
)

func loadConfig(path string) (*config.Config, error) {
	if strings.TrimSpace(path) != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

type generateResult struct {
	RunID      string       `json:"run_id"`
	Scene      *scene.Scene `json:"scene"`
	Provenance string       `json:"provenance"`
	DurationMs int64        `json:"duration_ms"`
	ModelCalls int          `json:"model_calls"`
	Cached     bool         `json:"cached"`
	Errors     []string     `json:"errors,omitempty"`
}

func generateCmd(configPath *string) *cobra.Command {
	var (
		imagePath string
		width     int
		height    int
	)

	cmd := &cobra.Command{
		Use:   "generate --image <path>",
		Short: "Run the scene pipeline once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(imagePath)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT)
			defer stop()
			if cfg.HTTP.RequestTimeout.Duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.HTTP.RequestTimeout.Duration)
				defer cancel()
			}

			a, err := app.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer a.Close()

			out := a.Services.Scenes.Generate(ctx, services.GenerateInput{Image: raw, Width: width, Height: height})
			return writeJSON(cmd.OutOrStdout(), generateResult{
				RunID:      out.RunID.String(),
				Scene:      out.Scene,
				Provenance: string(out.Provenance),
				DurationMs: out.DurationMs,
				ModelCalls: out.ModelCalls,
				Cached:     out.Cached,
				Errors:     out.Errors,
			})
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "photo to convert")
	cmd.Flags().IntVar(&width, "width", 0, "override the image width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "override the image height in pixels")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a scene or raw model reply; exits non-zero when invalid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			sc, err := validateReply(raw)
			if err != nil {
				var verr *scene.ValidationError
				if errors.As(err, &verr) {
					for _, msg := range verr.Messages() {
						fmt.Fprintf(w, "- %s\n", msg)
					}
					return fmt.Errorf("scene is invalid (%d problems)", len(verr.Messages()))
				}
				fmt.Fprintf(w, "- %s\n", err)
				return errors.New("scene is invalid")
			}

			counts := sc.CountByType()
			fmt.Fprintf(w, "valid: %d objects\n", len(sc.Objects))
			for _, t := range scene.ObjectTypes {
				fmt.Fprintf(w, "  %-12s %d/%d\n", t, counts[t], scene.Caps[t])
			}
			anchors := scene.EnemySpawnAnchors(sc.Objects)
			ids := make([]string, 0, len(anchors))
			for _, o := range anchors {
				ids = append(ids, o.ID)
			}
			fmt.Fprintf(w, "enemy spawn anchors: %s\n", strings.Join(ids, ", "))
			return nil
		},
	}
}

func validateReply(raw []byte) (*scene.Scene, error) {
	body, err := pipeline.ExtractJSON(string(raw))
	if err != nil {
		return nil, err
	}
	return scene.ValidateJSON(body)
}

func fallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fallback",
		Short: "Print the built-in fallback scene",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), scene.Fallback())
		},
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema sent to structured-output engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), scene.JSONSchema())
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
