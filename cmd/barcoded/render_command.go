package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"barcoded/internal/config"
	"barcoded/internal/daemonctl"
	"barcoded/internal/pipeline"
	"barcoded/internal/protocol"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "render DIR DATA [NAME]",
		Short: "Ask the daemon to write DIR/NAME.jpg with a barcode for DATA",
		Long: "Sends one render command to the daemon. The daemon does not reply, so a\n" +
			"successful send only means the command was delivered; check `barcoded history`\n" +
			"for the outcome.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := protocol.Request{TargetDir: args[0], Data: args[1]}
			if len(args) == 3 {
				req.Name = args[2]
			}
			if dir, err := config.ExpandPath(req.TargetDir); err == nil {
				req.TargetDir = dir
			}

			stdout := cmd.OutOrStdout()
			line, err := protocol.Format(req)
			if err != nil {
				return err
			}
			if len(line) > cfg.Daemon.ReadBuffer {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: command is %d bytes; the daemon reads at most %d and will truncate it\n", len(line), cfg.Daemon.ReadBuffer)
			}

			if err := daemonctl.Send(cfg.Daemon.SocketPath, line, timeout); err != nil {
				return wrapDaemonError(err, cfg.Daemon.SocketPath)
			}

			name := req.Name
			if name == "" {
				name = protocol.DefaultName
			}
			fmt.Fprintf(stdout, "Sent render request for %s\n", pipeline.ArtifactPath(protocol.Request{TargetDir: req.TargetDir, Name: name}))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", daemonctl.DefaultTimeout, "How long to wait for the daemon to take the command")
	return cmd
}
