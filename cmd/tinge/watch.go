package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maniglio/tinge/pkg/client"
	"github.com/maniglio/tinge/pkg/daemon"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Stream live color frames from the daemon",
		GroupID: gBasic,
		Long: `Stream monitor frames over the daemon's websocket endpoint and print one
line per frame. Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dialer := websocket.Dialer{
				NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", unixSocketPath)
				},
			}

			// The host part is ignored; the dialer above pins the socket.
			conn, _, err := dialer.DialContext(ctx, "ws://unix/stream", nil)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
					return client.ErrDaemonNotRunning
				}
				if errors.Is(err, fs.ErrPermission) {
					return client.ErrPermissionDenied
				}
				return fmt.Errorf("failed to connect to stream: %w", err)
			}
			defer func() {
				if err := conn.Close(); err != nil {
					logrus.Debugf("failed to close stream: %v", err)
				}
			}()

			go func() {
				<-ctx.Done()
				_ = conn.Close()
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("stream closed: %w", err)
				}

				var f daemon.Frame
				if err := json.Unmarshal(msg, &f); err != nil {
					logrus.Warnf("dropping malformed frame: %v", err)
					continue
				}

				cmd.Printf("%s %s %-7s %s rgb(%d, %d, %d)\n",
					f.At.Local().Format("15:04:05"), colorCell(f.RGB), f.Color, f.Hex,
					f.RGB.R, f.RGB.G, f.RGB.B)
			}
		},
	}
}
