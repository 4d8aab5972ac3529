package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacqueshq/jacques/archive"
	"github.com/jacqueshq/jacques/catalog"
	"github.com/jacqueshq/jacques/config"
	"github.com/jacqueshq/jacques/entry"
	"github.com/jacqueshq/jacques/log"
	"github.com/jacqueshq/jacques/manifest"
	"github.com/jacqueshq/jacques/search"
	"github.com/jacqueshq/jacques/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jacques",
		Short:         "Session catalog, archive and search for AI coding assistant logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), extractCmd(), archiveCmd(), searchCmd(), statsCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New(config.Get())
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-quit:
				return srv.Shutdown()
			}
		},
	}
}

func extractCmd() *cobra.Command {
	var project string
	var force bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract session catalogs for one project or all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			svc := catalog.NewService(config.LoadUserSettings(cfg.SettingsPath))

			opts := catalog.BulkOptions{
				Force: force,
				Progress: func(p catalog.Progress) {
					if p.Phase == catalog.PhaseExtracting && p.Current != "" {
						fmt.Printf("\r%s %s (%d extracted, %d skipped, %d errors)",
							p.Phase, p.Current, p.Extracted, p.Skipped, p.Errors)
					}
				},
			}

			var result catalog.BulkResult
			if project != "" {
				result = svc.ExtractProjectCatalog(project, opts)
			} else {
				result = svc.ExtractAllCatalogs(cfg.ProjectsDir, opts)
			}

			fmt.Printf("\n%d sessions: %d extracted, %d skipped, %d errors\n",
				result.TotalSessions, result.Extracted, result.Skipped, result.Errors)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project directory (default: all projects)")
	cmd.Flags().BoolVar(&force, "force", false, "re-extract even when logs are unchanged")
	return cmd
}

func archiveCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "archive LOG...",
		Short: "Archive session logs into the global cross-project store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			settings := config.LoadUserSettings(cfg.SettingsPath)

			store, err := archive.NewStore(cfg.ArchiveDir)
			if err != nil {
				return err
			}

			for _, logPath := range args {
				entries, err := entry.ReadEntries(logPath)
				if err != nil {
					log.Warn().Err(err).Str("log", logPath).Msg("skipping unreadable log")
					continue
				}

				m := manifest.Extract(entries, projectDirOf(logPath), logPath, manifest.Options{
					PlansDir: settings.PlansDir,
				})

				newPlans, err := store.ArchiveConversation(entries, m, archive.ArchiveOptions{
					SaveToLocal: local,
				})
				if err != nil {
					log.Warn().Err(err).Str("sessionId", m.ID).Msg("archive failed")
					continue
				}

				fmt.Printf("archived %s (%s)", m.ID, m.Title)
				if len(newPlans) > 0 {
					fmt.Printf(", %d new plans", len(newPlans))
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "mirror manifests into each project's .jacques directory")
	return cmd
}

func searchCmd() *cobra.Command {
	var project, tech string
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search archived conversations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.NewStore(config.Get().ArchiveDir)
			if err != nil {
				return err
			}

			results := store.SearchConversations(args[0], search.Filters{
				Project:    project,
				Technology: tech,
				Limit:      limit,
			})

			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}

			for _, r := range results {
				fmt.Printf("%-14s %6.1f  %s [%s]\n", r.SessionID, r.Score, r.Title, r.ProjectName)
				if r.Excerpt != "" {
					fmt.Printf("    %s\n", r.Excerpt)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "filter by project name or path")
	cmd.Flags().StringVar(&tech, "tech", "", "filter by technology tag")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show archive and search index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.NewStore(config.Get().ArchiveDir)
			if err != nil {
				return err
			}

			stats, err := store.Stats()
			if err != nil {
				return err
			}

			fmt.Printf("sessions: %d\nprojects: %d\nplans:    %d\n", stats.Sessions, stats.Projects, stats.Plans)
			fmt.Printf("index:    %d tokens, %d sessions, %.1f avg postings/token\n",
				stats.Index.Tokens, stats.Index.Sessions, stats.Index.AvgPostingsPerToken)
			return nil
		},
	}
}

// projectDirOf treats the log's directory as its project root.
func projectDirOf(logPath string) string {
	return filepath.Dir(logPath)
}
