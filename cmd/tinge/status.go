package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/chroma"
	"github.com/maniglio/tinge/pkg/config"
)

type statusData struct {
	raw       *chroma.RawReading
	rgb       *chroma.RGB
	hsv       *chroma.HSV
	colorName string
	overview  *calibration.Overview
	schedule  *calibration.Schedule
	config    *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the
// daemon.
func fetchStatusData() (*statusData, error) {
	raw, err := apiClient.GetRawColor()
	if err != nil {
		return nil, fmt.Errorf("failed to get raw reading: %w", err)
	}

	rgb, err := apiClient.GetRGB()
	if err != nil {
		return nil, fmt.Errorf("failed to get rgb color: %w", err)
	}

	hsv, err := apiClient.GetHSV()
	if err != nil {
		return nil, fmt.Errorf("failed to get hsv color: %w", err)
	}

	colorName, err := apiClient.GetColorName(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to get color name: %w", err)
	}

	overview, err := apiClient.GetCalibration()
	if err != nil {
		return nil, fmt.Errorf("failed to get calibration state: %w", err)
	}

	schedule, err := apiClient.GetSchedule()
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		raw:       raw,
		rgb:       rgb,
		hsv:       hsv,
		colorName: colorName,
		overview:  overview,
		schedule:  schedule,
		config:    conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of tinge",
		Long:    `Get the current reading, calibration state, schedule, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Get various info first.
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			cfg := config.NewFileFromConfig(data.config, "")

			if jsonOutput {
				return printStatusJSON(cmd, data)
			}

			// Current reading.
			cmd.Println(bold("Current reading:"))
			cmd.Printf("  Color: %s %s (%s)\n", colorCell(*data.rgb), bold("%s", data.colorName), data.rgb.HexString())
			cmd.Printf("  RGB: %s\n", bold("%d %d %d", data.rgb.R, data.rgb.G, data.rgb.B))
			cmd.Printf("  HSV: %s\n", bold("%.1f° %.2f %.2f", data.hsv.H, data.hsv.S, data.hsv.V))
			cmd.Printf("  Raw: ambient=%d red=%d green=%d blue=%d\n",
				data.raw.Ambient, data.raw.Red, data.raw.Green, data.raw.Blue)

			cmd.Println()

			// Calibration.
			ov := data.overview
			cmd.Println(bold("Calibration:"))
			cmd.Printf("  Status: %s %s\n", bold("%s", ov.Status), bool2Text(ov.Status.Ready()))
			cmd.Printf("  Ceilings: %s\n", bold("ambient=%d red=%d green=%d blue=%d",
				ov.Ceilings.Ambient, ov.Ceilings.Red, ov.Ceilings.Green, ov.Ceilings.Blue))
			if ov.Running {
				cmd.Println("  A calibration run is in progress.")
			}
			if ov.Report != nil {
				cmd.Printf("  Last run: %s (%d samples in %ds)\n",
					ov.Report.StartedAt.Local().Format(time.DateTime), ov.Report.Samples, ov.Report.EffectiveSeconds)
				if ov.Report.Failure != "" {
					cmd.Printf("  Last failure: %s\n", ov.Report.Failure)
				}
			}

			cmd.Println()

			// Schedule.
			sched := data.schedule
			cmd.Println(bold("Schedule:"))
			if sched.Cron == "" {
				cmd.Println("  Not set.")
			} else {
				cmd.Printf("  Cron: %s\n", bold("%s", sched.Cron))
				for _, run := range sched.NextRuns {
					cmd.Printf("    - %s\n", run.Local().Format(time.DateTime))
				}
			}

			cmd.Println()

			// Config.
			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Poll interval: %s\n", bold("%s", cfg.PollInterval()))
			cmd.Printf("  Calibration seconds: %s\n", bold("%d", cfg.CalibrationSeconds()))
			cmd.Printf("  Detection tolerance: %s\n", bold("%.2f", cfg.Tolerance()))
			cmd.Printf("  Calibrate on start: %s\n", bool2Text(cfg.CalibrateOnStart()))
			cmd.Printf("  Use defaults on calibration failure: %s\n", bool2Text(cfg.UseDefaultsOnFailure()))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(cfg.AllowNonRootAccess()))
			if cfg.MirrorEnabled() {
				cmd.Printf("  LIFX mirror: %s group %s, max brightness %.2f\n",
					bool2Text(true), bold("%q", cfg.MirrorGroup()), cfg.MirrorMaxBrightness())
			} else {
				cmd.Printf("  LIFX mirror: %s\n", bool2Text(false))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print status as JSON")

	return cmd
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
