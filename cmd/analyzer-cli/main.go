package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bookmark-analyzer/internal/adapter/repository"
	"bookmark-analyzer/internal/di"
	"bookmark-analyzer/internal/domain"
	"bookmark-analyzer/internal/infra"
	"bookmark-analyzer/internal/infra/config"
	"bookmark-analyzer/internal/usecase"
)

var (
	flagTitle       string
	flagDescription string
	flagTags        []string
	flagRuleOnly    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "analyzer-cli",
		Short:        "Analyze bookmarked content with a local model",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&flagRuleOnly, "rule-only", false, "skip the model and use rule-based analysis")
	root.AddCommand(analyzeCmd(), batchCmd(), connectionCmd(), cacheCmd())
	return root
}

// engine wires the full analysis stack for one CLI invocation.
func engine(ctx context.Context) (usecase.AnalyzeContentUsecase, func(), error) {
	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	components := di.NewApplicationComponents(cfg, store, log)
	if flagRuleOnly {
		components.AnalyzeUsecase.DisableModel()
	}
	return components.AnalyzeUsecase, cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config) (domain.CacheStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Store.DBUser, cfg.Store.DBPassword, cfg.Store.DBHost, cfg.Store.DBPort, cfg.Store.DBName)
		pool, err := infra.NewPostgresDB(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresCacheStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case "memory":
		return repository.NewMemoryCacheStore(), func() {}, nil
	default:
		handle, err := infra.NewSQLiteDB(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewSQLiteCacheStore(handle.DB)
		if err != nil {
			_ = handle.Close()
			return nil, nil, err
		}
		return store, func() { _ = handle.Close() }, nil
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze a single bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyze, cleanup, err := engine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			analysis, err := analyze.Analyze(cmd.Context(), domain.ContentItem{
				Title:        flagTitle,
				URL:          args[0],
				Description:  flagDescription,
				ExistingTags: flagTags,
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(analysis, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&flagTitle, "title", "", "bookmark title")
	cmd.Flags().StringVar(&flagDescription, "description", "", "bookmark description")
	cmd.Flags().StringSliceVar(&flagTags, "tags", nil, "existing tags")
	return cmd
}

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <items.json>",
		Short: "Analyze a JSON array of bookmarks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading items file: %w", err)
			}
			var items []domain.ContentItem
			if err := json.Unmarshal(data, &items); err != nil {
				return fmt.Errorf("parsing items file: %w", err)
			}
			if len(items) == 0 {
				return fmt.Errorf("items file is empty")
			}

			analyze, cleanup, err := engine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := analyze.AnalyzeBatch(cmd.Context(), items, func(processed, total int) {
				fmt.Fprintf(os.Stderr, "analyzed %d/%d\n", processed, total)
			})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(items))
			for _, item := range items {
				analysis, ok := results[item.URL]
				if !ok {
					continue
				}
				categories := make([]string, len(analysis.Categories))
				for i, c := range analysis.Categories {
					categories[i] = string(c)
				}
				rows = append(rows, []string{
					item.URL,
					analysis.MainTopic,
					strings.Join(categories, ", "),
					string(analysis.Sentiment),
					strings.Join(analysis.SuggestedTags, ", "),
				})
			}
			printTable([]string{"URL", "Topic", "Categories", "Sentiment", "Tags"}, rows)
			return nil
		},
	}
}

func connectionCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "connection",
		Short: "Check the model server connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			analyze, cleanup, err := engine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var status usecase.ConnectionStatus
			if refresh {
				status = analyze.RefreshConnection(cmd.Context())
			} else {
				status = analyze.CheckConnection(cmd.Context())
			}
			fmt.Printf("connected: %v\n%s\n", status.Connected, status.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop the remembered endpoint and re-probe")
	return cmd
}

func cacheCmd() *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis cache",
	}
	cache.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			analyze, cleanup, err := engine(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := analyze.ClearCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("cache cleared")
			return nil
		},
	})
	return cache
}
