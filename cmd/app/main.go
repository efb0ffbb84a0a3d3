// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pixelgrid/authcore/cmd/app/commands"
	"github.com/pixelgrid/authcore/internal/app"
	"github.com/pixelgrid/authcore/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "authcore",
		Usage:   "Actor authentication and capability authorization service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					return commands.RunMigrations(
						container.Logger(),
						cfg.DBDriver,
						cfg.DBConnectionString,
					)
				},
			},
			{
				Name:  "create-apikey",
				Usage: "Provision a new API key for a project",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project-id",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Owning project ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Human-readable key name",
					},
					&cli.StringFlag{
						Name:     "permissions",
						Required: true,
						Usage:    "Comma-separated permission names (e.g., 'AssetsRead,JobsView')",
					},
					&cli.BoolFlag{
						Name:    "enabled",
						Aliases: []string{"e"},
						Value:   true,
						Usage:   "Whether the key can authenticate immediately",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container := app.NewContainer(config.Load())
					logger := container.Logger()
					defer func() {
						if err := container.Shutdown(context.Background()); err != nil {
							logger.Error("failed to shutdown container", slog.Any("error", err))
						}
					}()

					apiKeyUseCase, err := container.ApiKeyUseCase()
					if err != nil {
						return fmt.Errorf("failed to initialize api key use case: %w", err)
					}

					return commands.RunCreateApiKey(
						ctx,
						apiKeyUseCase,
						logger,
						cmd.String("project-id"),
						cmd.String("name"),
						cmd.String("permissions"),
						cmd.Bool("enabled"),
						cmd.String("format"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "mint-token",
				Usage: "Sign an auth token for a key without a server round trip",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key-id",
						Aliases:  []string{"k"},
						Required: true,
						Usage:    "API key ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "project-id",
						Aliases:  []string{"p"},
						Required: true,
						Usage:    "Owning project ID (UUID)",
					},
					&cli.DurationFlag{
						Name:    "ttl",
						Value:   4 * time.Hour,
						Usage:   "Token lifetime (e.g., '1h', '30m')",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container := app.NewContainer(config.Load())
					logger := container.Logger()

					signer, err := container.TokenSigner()
					if err != nil {
						return fmt.Errorf("failed to initialize token signer: %w", err)
					}

					return commands.RunMintToken(
						signer,
						logger,
						cmd.String("key-id"),
						cmd.String("project-id"),
						cmd.Duration("ttl"),
						cmd.String("format"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "generate-signing-key",
				Usage: "Generate a new token signing key spec",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "id",
						Aliases: []string{"i"},
						Value:   "",
						Usage:   "Signing key ID (e.g., prod-signing-key-2026)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container := app.NewContainer(config.Load())
					return commands.RunGenerateSigningKey(
						container.Logger(),
						cmd.String("id"),
						commands.DefaultIO(),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
