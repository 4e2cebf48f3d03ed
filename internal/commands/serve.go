package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gerunddev/cardbridge/internal/attachments"
	"github.com/gerunddev/cardbridge/internal/daemon"
	"github.com/gerunddev/cardbridge/internal/styles"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen string
		dir    string
		detach bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cached attachments to the Jira importer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Attachments.Listen
			}
			if dir == "" {
				dir = a.cfg.Attachments.Dir
			}

			if detach {
				return startDetached(cmd, listen, dir)
			}

			if err := daemon.WritePID(); err != nil {
				return err
			}
			defer func() {
				if err := daemon.RemovePID(); err != nil {
					a.log.Warn("failed to remove PID file on shutdown", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info("attachment server started", "pid", os.Getpid(), "addr", listen, "dir", dir)
			err := attachments.Serve(ctx, listen, attachments.NewServer(dir))
			a.log.Info("attachment server stopped")
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to serve (default from config)")
	cmd.Flags().BoolVar(&detach, "detach", false, "Run the server in the background")

	cmd.AddCommand(newServeStopCmd(), newServeStatusCmd())
	return cmd
}

func startDetached(cmd *cobra.Command, listen, dir string) error {
	if err := daemon.Daemonize([]string{"serve", "--listen", listen, "--dir", dir}); err != nil {
		return err
	}

	// Give it a moment to write its PID file
	time.Sleep(500 * time.Millisecond)

	running, pid, _ := daemon.IsRunning()
	if !running {
		return errors.New("server failed to start")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.SuccessStyle.Render(fmt.Sprintf("✓ Server started with PID %d on %s", pid, listen)))
	fmt.Fprintln(out, styles.DimStyle.Render("  Run 'cardbridge serve stop' to stop it"))
	return nil
}

func newServeStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			running, pid, _ := daemon.IsRunning()
			if !running {
				fmt.Fprintln(out, styles.DimStyle.Render("Server is not running"))
				return nil
			}

			fmt.Fprintf(out, "Stopping server (PID %d)...\n", pid)
			if err := daemon.Stop(); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}

			for i := 0; i < 10; i++ {
				time.Sleep(500 * time.Millisecond)
				if running, _, _ = daemon.IsRunning(); !running {
					break
				}
			}
			if running {
				return errors.New("server did not stop gracefully")
			}

			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Server stopped"))
			return nil
		},
	}
}

func newServeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the background server is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			running, pid, started := daemon.IsRunning()
			if !running {
				fmt.Fprintln(out, styles.DimStyle.Render("Server is not running"))
				return nil
			}

			uptime := time.Since(started).Round(time.Second)
			fmt.Fprintln(out, styles.SuccessStyle.Render(fmt.Sprintf("● Server running with PID %d", pid))+
				styles.DimStyle.Render(fmt.Sprintf(" (up %v)", uptime)))
			return nil
		},
	}
}
