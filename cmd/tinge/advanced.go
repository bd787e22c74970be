package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewPollIntervalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "poll-interval <duration>",
		Short:   "Set how often the daemon polls the sensor",
		GroupID: gAdvanced,
		Long: `Set how often the daemon monitor loop polls the sensor.

Accepts Go duration strings such as 500ms, 1s, or 2m. The minimum is 100ms.
The value is written to the config file immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration: %v", err)
			}

			ret, err := apiClient.SetPollInterval(d)
			if err != nil {
				return fmt.Errorf("failed to set poll interval: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set poll interval to %s", d)

			return nil
		},
	}
}

func NewToleranceCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tolerance <value>",
		Short:   "Set the default detection tolerance",
		GroupID: gAdvanced,
		Long: `Set the default tolerance used by detect and match when a request does not
carry its own.

Must be between 0 and 1. Higher values widen every color band, so borderline
readings classify instead of reporting Unknown, at the cost of more
misclassifications. The value is written to the config file immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := parseFloatArg(args, "tolerance")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetTolerance(t)
			if err != nil {
				return fmt.Errorf("failed to set tolerance: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set tolerance to %v", t)

			return nil
		},
	}
}

func NewSwatchCommand() *cobra.Command {
	var (
		size   int
		output string
	)

	cmd := &cobra.Command{
		Use:     "swatch",
		Short:   "Save a PNG swatch of the current color",
		GroupID: gAdvanced,
		Long: `Fetch a PNG swatch of the current color from the daemon and write it to a
file, or to stdout with '-o -'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			png, err := apiClient.GetSwatch(size)
			if err != nil {
				return fmt.Errorf("failed to fetch swatch: %w", err)
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(png)
				return err
			}

			if err := os.WriteFile(output, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			cmd.Printf("Wrote %s (%d bytes).\n", output, len(png))
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 0, "swatch size in pixels (0 uses the daemon default)")
	cmd.Flags().StringVarP(&output, "output", "o", "swatch.png", "output file ('-' for stdout)")

	return cmd
}
