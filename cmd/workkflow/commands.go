package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/5ALAM/workkflow/internal/cpm"
	"github.com/5ALAM/workkflow/internal/dot"
	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/reporter"
	"github.com/5ALAM/workkflow/internal/store"
	"github.com/5ALAM/workkflow/internal/transition"
	"github.com/5ALAM/workkflow/internal/ui"
	"github.com/5ALAM/workkflow/internal/view"
	"github.com/5ALAM/workkflow/internal/viewer"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the workflow for duplicate ids, missing parents and cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openSession()
			if err != nil {
				return err
			}
			res, err := sess.Layout()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return outputJSON(out, map[string]any{
					"valid":  true,
					"source": sess.Source(),
					"steps":  sess.Graph().Len(),
					"layers": len(res.Layers),
				})
			}
			fmt.Fprintf(out, "%s %d steps in %d layers, no cycles (%s)\n",
				ui.Green("✓"), sess.Graph().Len(), len(res.Layers), ui.Dim(string(sess.Source())))
			return nil
		},
	}
}

func layoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the layered layout: rank, order and position of every step",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, err := openSession()
			if err != nil {
				return err
			}
			g, res, err := filteredLayout(sess, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return outputJSON(out, res)
			}

			fmt.Fprintf(out, "%s %s, %.0f×%.0f, %d crossings\n",
				ui.BoldCyan("Layout"), res.Options.Direction, res.Width, res.Height, res.Crossings)
			for rank, ids := range res.Layers {
				fmt.Fprintf(out, "\n%s %d\n", ui.Bold("Layer"), rank)
				for _, id := range ids {
					s, _ := g.Step(id)
					p := res.Placements[id]
					fmt.Fprintf(out, "  %s %-30s (%.0f, %.0f)\n", ui.StepPrefix(id), s.Event, p.Position.X, p.Position.Y)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter steps (e.g., status!=finished, owner=legal)")
	return cmd
}

func viewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Print renderer-facing node and edge records as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, err := openSession()
			if err != nil {
				return err
			}
			var v *view.Views
			if flagFilter == "" {
				v, err = sess.Views()
			} else {
				g, res, ferr := filteredLayout(sess, cfg)
				if ferr != nil {
					return ferr
				}
				v, err = view.Build(g, res)
			}
			if err != nil {
				return err
			}
			return outputJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter steps (e.g., status!=finished, owner=legal)")
	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Draw the workflow as a board of layers in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, err := openSession()
			if err != nil {
				return err
			}
			g, res, err := filteredLayout(sess, cfg)
			if err != nil {
				return err
			}
			v, err := view.Build(g, res)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Board(v))
			return nil
		},
	}
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter steps (e.g., status!=finished, owner=legal)")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show progress per layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openSession()
			if err != nil {
				return err
			}
			res, err := sess.Layout()
			if err != nil {
				return err
			}

			rpt := reporter.New(sess.Graph(), res)
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			rpt.PrintStatus(cmd.OutOrStdout())
			return nil
		},
	}
}

func eligibleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eligible",
		Short: "List steps whose dependencies are all finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openSession()
			if err != nil {
				return err
			}
			g := sess.Graph()
			ids := transition.Eligible(g)

			out := cmd.OutOrStdout()
			if flagJSON {
				if ids == nil {
					ids = []graph.StepID{}
				}
				return outputJSON(out, ids)
			}
			for _, id := range ids {
				s, _ := g.Step(id)
				fmt.Fprintf(out, "%s %s %s\n", ui.StatusIcon(s.Status), ui.StepPrefix(id), s.Event)
			}
			return nil
		},
	}
}

func criticalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "critical",
		Short: "Show the critical path through the unfinished steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openSession()
			if err != nil {
				return err
			}
			g := sess.Graph()
			res, err := cpm.Analyze(g)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return outputJSON(out, res)
			}
			if res.TotalDuration == 0 {
				fmt.Fprintln(out, "All steps finished.")
				return nil
			}

			fmt.Fprintf(out, "%s %d days remaining\n", ui.BoldCyan("Critical path:"), res.TotalDuration)
			for _, w := range res.Waves {
				fmt.Fprintf(out, "\n%s %d (day %d)\n", ui.Bold("Wave"), w.Index+1, w.Start)
				for _, id := range w.StepIDs {
					s, _ := g.Step(id)
					sc := res.Schedules[id]
					if sc.Duration == 0 {
						continue
					}
					marker := " "
					if sc.Critical {
						marker = ui.Red("*")
					}
					fmt.Fprintf(out, "  %s %s %-30s %s\n", marker, ui.StepPrefix(id), s.Event,
						ui.Dim(fmt.Sprintf("%dd, slack %d", sc.Duration, sc.Slack)))
				}
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <id> <status>",
		Short: "Report whether a step may change to a status, without changing it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := openSession()
			if err != nil {
				return err
			}
			id := graph.StepID(args[0])
			status, err := sess.Check(id, args[1])

			out := cmd.OutOrStdout()
			if flagJSON {
				resp := map[string]any{"step": id, "status": args[1], "allowed": err == nil}
				var de *transition.DependencyNotSatisfiedError
				if errors.As(err, &de) {
					resp["blocking"] = de.Blocking
				}
				if err != nil {
					resp["error"] = err.Error()
				}
				if jerr := outputJSON(out, resp); jerr != nil {
					return jerr
				}
				return err
			}
			if err != nil {
				fmt.Fprintf(out, "%s %s cannot change to %s: %v\n", ui.Red("✗"), ui.StepPrefix(id), args[1], err)
				return err
			}
			fmt.Fprintf(out, "%s %s can change to %s\n", ui.Green("✓"), ui.StepPrefix(id), ui.StatusLabel(status))
			return nil
		},
	}
}

func setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <id> <status>",
		Short: "Change a step's status if its dependencies are finished",
		Long: `Change a step's status. Allowed statuses are notStarted, inProgress and
finished. The change is rejected unless every step it directly depends on
is finished. With --server the change is sent to a running viewer instead
of the local store.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := graph.StepID(args[0])
			out := cmd.OutOrStdout()

			if flagServer != "" {
				if err := viewer.PostStatus(flagServer, id, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s → %s (via %s)\n", ui.Green("✓"), ui.StepPrefix(id), args[1], flagServer)
				return nil
			}

			sess, _, err := openSession()
			if err != nil {
				return err
			}
			g, err := sess.Transition(id, args[1])
			if err != nil {
				return err
			}
			s, _ := g.Step(id)
			if flagJSON {
				return outputJSON(out, s)
			}
			fmt.Fprintf(out, "%s %s %s → %s\n", ui.Green("✓"), ui.StepPrefix(id), s.Event, ui.StatusLabel(s.Status))
			return nil
		},
	}
	cmd.Flags().StringVar(&flagServer, "server", "", "Viewer base URL (e.g. http://127.0.0.1:7420)")
	return cmd
}

func dotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Export the laid-out workflow as Graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, err := openSession()
			if err != nil {
				return err
			}
			g, res, err := filteredLayout(sess, cfg)
			if err != nil {
				return err
			}
			src, err := dot.Export(g, res)
			if err != nil {
				return err
			}
			if flagOutput != "" {
				return os.WriteFile(flagOutput, []byte(src), 0644)
			}
			fmt.Fprint(cmd.OutOrStdout(), src)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter steps (e.g., status!=finished, owner=legal)")
	cmd.Flags().StringVar(&flagOutput, "output", "", "Write DOT to file")
	return cmd
}

func importDOTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-dot <file>",
		Short: "Replace the workflow with the steps of a DOT digraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read DOT: %w", err)
			}
			steps, err := dot.Parse(string(data))
			if err != nil {
				return err
			}

			sess, _, err := openSession()
			if err != nil {
				return err
			}
			if err := sess.Replace(steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s imported %d steps from %s\n", ui.Green("✓"), len(steps), args[0])
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve views over HTTP and accept status changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, err := openSession()
			if err != nil {
				return err
			}
			if viewer.IsPortOpen(cfg.Server.Addr) {
				return fmt.Errorf("%s is already in use", cfg.Server.Addr)
			}

			base, srv, err := viewer.Start(cfg.Server.Addr, sess)
			if err != nil {
				return err
			}
			slog.Info("viewer started", "url", base, "session", sess.ID())
			fmt.Fprintf(cmd.OutOrStdout(), "%s viewer at %s (Ctrl-C to stop)\n", ui.BoldCyan("workkflow"), base)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, 127.0.0.1:7420)")
	return cmd
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved workflow so the default dataset is used again",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fs := store.NewFileStore(cfg.Store.Path)
			if !fs.Exists() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to reset.")
				return nil
			}
			if err := fs.Remove(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", ui.Green("✓"), fs.Path())
			return nil
		},
	}
}
