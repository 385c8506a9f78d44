package cmd

import (
	stderrors "errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shardex/internal/daemon"
)

func newStatusCmd() *cobra.Command {
	var flags nodeFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a node is serving the data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}

			pid := daemon.NewPIDFile(daemon.PathsFor(cfg.Paths.DataDir).PIDPath)
			n, err := pid.Read()
			switch {
			case stderrors.Is(err, daemon.ErrPIDFileNotFound):
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "not running (data dir: %s)\n", cfg.Paths.DataDir)
				return err
			case err != nil:
				return err
			case !pid.IsRunning():
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "not running (stale PID %d in %s)\n", n, pid.Path())
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "running (PID %d, data dir: %s)\n", n, cfg.Paths.DataDir)
			return err
		},
	}

	flags.register(cmd, false)
	return cmd
}

func newStopCmd() *cobra.Command {
	var flags nodeFlags

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Ask the node serving the data directory to shut down",
		Long: `Send SIGTERM to the node recorded in the data directory's PID file.
The node stops accepting requests and closes its indices. Unflushed writes are lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}

			pid := daemon.NewPIDFile(daemon.PathsFor(cfg.Paths.DataDir).PIDPath)
			if !pid.IsRunning() {
				return fmt.Errorf("no running node for data dir %s", cfg.Paths.DataDir)
			}
			if err := pid.Signal(syscall.SIGTERM); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "stop signal sent")
			return err
		},
	}

	flags.register(cmd, false)
	return cmd
}
