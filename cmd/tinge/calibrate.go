package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/maniglio/tinge/pkg/calibration"
)

func NewCalibrateCommand() *cobra.Command {
	var useDefaults bool

	cmd := &cobra.Command{
		Use:     "calibrate [seconds]",
		Aliases: []string{"calibration", "cali"},
		Short:   "Run white-target calibration",
		GroupID: gBasic,
		Long: `Run a calibration pass against a white reference target.

Hold a white card a few centimeters in front of the sensor and keep it still
for the whole sampling window. The daemon records the per-channel maxima and
uses them as normalization ceilings for every later reading.

Seconds must be between 1 and 10; out-of-range values fall back to the
default of 5.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := calibration.Request{UseDefaultsOnFailure: useDefaults}
			if len(args) > 0 {
				seconds, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid seconds: %v", err)
				}
				req.Seconds = seconds
			}

			cmd.Println("Calibrating. Hold the white target steady...")

			report, err := apiClient.Calibrate(req)
			if err != nil {
				return fmt.Errorf("failed to calibrate: %w", err)
			}

			printCalibrationReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useDefaults, "use-defaults-on-failure", false,
		"fall back to the default ceilings when the run fails validation")

	cmd.AddCommand(
		newCalibrateStatusCommand(),
		newCalibrateDefaultsCommand(),
	)

	return cmd
}

func newCalibrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current calibration state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := apiClient.GetCalibration()
			if err != nil {
				return fmt.Errorf("failed to fetch calibration state: %w", err)
			}
			printCalibrationOverview(cmd, ov)
			return nil
		},
	}
}

func newCalibrateDefaultsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Apply the default calibration ceilings without sampling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := apiClient.UseDefaultCalibration()
			if err != nil {
				return fmt.Errorf("failed to apply default calibration: %w", err)
			}
			cmd.Printf("Default ceilings applied. Status: %s\n", bold("%s", ov.Status))
			return nil
		},
	}
}

func printCalibrationReport(cmd *cobra.Command, report *calibration.Report) {
	if report.Failure != "" {
		cmd.Printf("Calibration failed: %s\n", report.Failure)
	} else {
		cmd.Println("Calibration complete.")
	}

	cmd.Printf("Status: %s\n", bold("%s", report.Status))
	cmd.Printf("Samples: %s over %ds (minimum %d)\n", bold("%d", report.Samples), report.EffectiveSeconds, report.MinSamples)
	cmd.Printf("Ceilings: %s\n", bold("ambient=%d red=%d green=%d blue=%d",
		report.Ceilings.Ambient, report.Ceilings.Red, report.Ceilings.Green, report.Ceilings.Blue))
	printChannelStats(cmd, "ambient", report.Ambient)
	printChannelStats(cmd, "red", report.Red)
	printChannelStats(cmd, "green", report.Green)
	printChannelStats(cmd, "blue", report.Blue)
}

func printChannelStats(cmd *cobra.Command, name string, stats calibration.ChannelStats) {
	cmd.Printf("  %-7s max=%-5d mean=%-7.1f stddev=%.1f\n", name, stats.Max, stats.Mean, stats.StdDev)
}

func printCalibrationOverview(cmd *cobra.Command, ov *calibration.Overview) {
	cmd.Printf("Status: %s\n", bold("%s", ov.Status))
	cmd.Printf("Ceilings: %s\n", bold("ambient=%d red=%d green=%d blue=%d",
		ov.Ceilings.Ambient, ov.Ceilings.Red, ov.Ceilings.Green, ov.Ceilings.Blue))
	if ov.Running {
		cmd.Println("A calibration run is in progress.")
	}
	if ov.Report != nil {
		cmd.Printf("Last run: %s (%d samples in %ds)\n",
			ov.Report.StartedAt.Local().Format(time.DateTime), ov.Report.Samples, ov.Report.EffectiveSeconds)
		if ov.Report.Failure != "" {
			cmd.Printf("Last failure: %s\n", ov.Report.Failure)
		}
	}
	if ov.Cron != "" {
		cmd.Printf("Schedule: %s\n", ov.Cron)
		if ov.NextRun != nil {
			cmd.Printf("Next run: %s\n", ov.NextRun.Local().Format(time.DateTime))
		}
	}
}
