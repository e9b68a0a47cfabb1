package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/gweinger/zettelkasten/internal"
	"github.com/gweinger/zettelkasten/internal/mcpserver"
	"github.com/gweinger/zettelkasten/internal/review"
	"github.com/gweinger/zettelkasten/internal/vault"
	pkgconfig "github.com/gweinger/zettelkasten/pkg/config"
)

// loadConfig reads the YAML config when it exists, otherwise keeps the
// defaults so commands work in a fresh directory. Flag overrides apply
// after loading.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		if err := pkgconfig.Load(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// cliService builds the review service with a quiet text logger so
// command output stays readable.
func cliService(cmd *cli.Command) (*review.Service, *vault.FS, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	return internal.NewReviewService(cfg, logger)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := vault.EnsureLayout(cfg.Vault.Path); err != nil {
		return err
	}
	fmt.Printf("vault initialized at %s\n", cfg.Vault.Path)
	return nil
}

func stagingAction(ctx context.Context, cmd *cli.Command) error {
	svc, _, err := cliService(cmd)
	if err != nil {
		return err
	}
	staged, err := svc.ListStaging(ctx)
	if err != nil {
		return err
	}
	if len(staged) == 0 {
		fmt.Println("staging is empty")
		return nil
	}
	for _, n := range staged {
		if n.MergeInto != "" {
			fmt.Printf("%s\t%s\t-> merge into %s\n", n.Path, n.Title, n.MergeInto)
		} else {
			fmt.Printf("%s\t%s\t-> new\n", n.Path, n.Title)
		}
	}
	return nil
}

func approveAction(ctx context.Context, cmd *cli.Command) error {
	svc, _, err := cliService(cmd)
	if err != nil {
		return err
	}

	pattern := cmd.Args().First()
	staged, err := svc.ListStaging(ctx)
	if err != nil {
		return err
	}

	// Approvals continue past per-note failures; the summary reports both.
	counts := map[string]int{}
	failed := 0
	matched := 0
	for _, n := range staged {
		if pattern != "" && !strings.Contains(n.Path, pattern) {
			continue
		}
		matched++
		outcome, err := svc.Approve(ctx, n.Path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "approve %s: %v\n", n.Path, err)
			continue
		}
		counts[outcome.String()]++
		fmt.Printf("%s: %s\n", outcome, n.Path)
	}

	if matched == 0 {
		fmt.Println("nothing to approve")
		return nil
	}
	fmt.Printf("approved %d, failed %d\n", matched-failed, failed)
	return nil
}

func stubsAction(ctx context.Context, cmd *cli.Command) error {
	svc, _, err := cliService(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("fill") {
		filled, failedCount, err := svc.FillAllStubs(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("filled %d stubs, %d failed\n", filled, failedCount)
		return nil
	}

	stubs, err := svc.Stubs(ctx)
	if err != nil {
		return err
	}
	if len(stubs) == 0 {
		fmt.Println("no stubs found")
		return nil
	}
	for _, st := range stubs {
		fmt.Printf("%s\t%s\n", st.Path, st.Title)
	}
	return nil
}

func orphansAction(ctx context.Context, cmd *cli.Command) error {
	svc, _, err := cliService(cmd)
	if err != nil {
		return err
	}
	orphans, err := svc.Orphans(ctx)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Println("no orphans found")
		return nil
	}
	for _, o := range orphans {
		fmt.Printf("%s\t(linked from %s)\n", o.Name, strings.Join(o.Referrers, ", "))
	}
	return nil
}

func indexAction(ctx context.Context, cmd *cli.Command) error {
	svc, _, err := cliService(cmd)
	if err != nil {
		return err
	}
	if err := svc.RebuildIndex(ctx); err != nil {
		return err
	}
	fmt.Println("indexes rebuilt")
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	svc, v, err := cliService(cmd)
	if err != nil {
		return err
	}
	return mcpserver.New(svc, v).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "zettel",
		Usage:  "Reconcile, merge, and review Markdown notes in a Zettelkasten vault",
		Action: serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory (overrides config)",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SSE broker, and vault watcher",
				Action: serveAction,
			},
			{
				Name:   "init",
				Usage:  "Create the vault directory layout",
				Action: initAction,
			},
			{
				Name:   "staging",
				Usage:  "List notes awaiting review",
				Action: stagingAction,
			},
			{
				Name:      "approve",
				Usage:     "Approve staged notes (all, or those matching a path substring)",
				ArgsUsage: "[pattern]",
				Action:    approveAction,
			},
			{
				Name:   "stubs",
				Usage:  "List stub notes, or fill them from backlink context",
				Action: stubsAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "fill",
						Usage: "Generate descriptions for all stubs",
					},
				},
			},
			{
				Name:   "orphans",
				Usage:  "List linked concepts that have no note file",
				Action: orphansAction,
			},
			{
				Name:   "index",
				Usage:  "Rebuild the generated index documents",
				Action: indexAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve review tools over MCP on stdin/stdout",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
