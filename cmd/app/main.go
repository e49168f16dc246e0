package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/chefgenie/internal"
	pkgconfig "github.com/starford/chefgenie/pkg/config"
)

type runFunc func(ctx context.Context, opts ...internal.Option) error

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

type extraFunc func(cmd *cli.Command, cfg *internal.Config) ([]internal.Option, error)

func action(run runFunc, extra extraFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
		}
		if extra != nil {
			more, err := extra(cmd, cfg)
			if err != nil {
				return err
			}
			opts = append(opts, more...)
		}

		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

// overrideClient applies command line client settings on top of the loaded
// config and validates the result again.
func overrideClient(cfg *internal.Config, serverURL, connectivity string) error {
	if serverURL != "" {
		cfg.Client.ServerURL = serverURL
	}
	if connectivity != "" {
		cfg.Client.Connectivity = connectivity
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid ask flags: %w", err)
	}
	return nil
}

func askOptions(cmd *cli.Command, cfg *internal.Config) ([]internal.Option, error) {
	if err := overrideClient(cfg, cmd.String("server"), cmd.String("connectivity")); err != nil {
		return nil, err
	}
	var opts []internal.Option
	if cmd.Bool("interactive") {
		opts = append(opts, internal.WithInteractive())
	}
	if cmd.Bool("list") {
		opts = append(opts, internal.WithListRecipes())
	}
	return append(opts, internal.WithQuery(strings.Join(cmd.Args().Slice(), " "))), nil
}

func main() {
	serve := action(internal.Run, nil)

	cmd := &cli.Command{
		Name:   "chefgenie",
		Usage:  "Recipe assistant with an offline catalog and an offline cache gateway",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the app shell, POST /process and the recipe catalog",
				Action: serve,
			},
			{
				Name:   "gateway",
				Usage:  "Run the offline cache gateway in front of the recipe server",
				Action: action(internal.RunGateway, nil),
			},
			{
				Name:      "ask",
				Usage:     "Resolve a recipe request from the terminal",
				ArgsUsage: "[request text]",
				Action:    action(internal.Ask, askOptions),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "Read transcripts from stdin, one per line",
					},
					&cli.BoolFlag{
						Name:    "list",
						Aliases: []string{"l"},
						Usage:   "List the offline catalog",
					},
					&cli.StringFlag{
						Name:    "server",
						Usage:   "Recipe server URL",
						Sources: cli.EnvVars("CHEFGENIE_SERVER_URL"),
					},
					&cli.StringFlag{
						Name:  "connectivity",
						Usage: "auto, online or offline",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve recipe tools over MCP stdio",
				Action: action(internal.RunMCP, nil),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
