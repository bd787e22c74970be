package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maniglio/tinge/pkg/chroma"
)

func NewReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "read [raw|rgb|hex|hsv]",
		Short:     "Read the current color",
		GroupID:   gBasic,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"raw", "rgb", "hex", "hsv"},
		Long: `Read the current color from the daemon.

The optional argument selects the representation: raw channel counts straight
from the sensor, normalized 8-bit rgb (the default), a #RRGGBB hex string, or
hsv with hue in degrees.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := "rgb"
			if len(args) > 0 {
				format = args[0]
			}

			switch format {
			case "raw":
				raw, err := apiClient.GetRawColor()
				if err != nil {
					return fmt.Errorf("failed to read raw channels: %w", err)
				}
				cmd.Printf("ambient=%d red=%d green=%d blue=%d\n", raw.Ambient, raw.Red, raw.Green, raw.Blue)
			case "rgb":
				rgb, err := apiClient.GetRGB()
				if err != nil {
					return fmt.Errorf("failed to read rgb: %w", err)
				}
				cmd.Printf("%d %d %d\n", rgb.R, rgb.G, rgb.B)
			case "hex":
				hex, err := apiClient.GetHex()
				if err != nil {
					return fmt.Errorf("failed to read hex: %w", err)
				}
				cmd.Println(hex)
			case "hsv":
				hsv, err := apiClient.GetHSV()
				if err != nil {
					return fmt.Errorf("failed to read hsv: %w", err)
				}
				cmd.Printf("%.1f %.2f %.2f\n", hsv.H, hsv.S, hsv.V)
			default:
				return fmt.Errorf("unknown format: %s", format)
			}

			return nil
		},
	}
}

func NewDetectCommand() *cobra.Command {
	var tolerance float64

	cmd := &cobra.Command{
		Use:     "detect",
		Short:   "Classify the current color",
		GroupID: gBasic,
		Long: `Classify the current reading into one of the standard colors: Red, Orange,
Yellow, Green, Cyan, Blue, Purple, Magenta, White, Black, or Unknown when
nothing qualifies.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := apiClient.GetColorName(tolerance)
			if err != nil {
				return fmt.Errorf("failed to detect color: %w", err)
			}

			rgb, err := apiClient.GetRGB()
			if err != nil {
				return fmt.Errorf("failed to read rgb: %w", err)
			}

			cmd.Printf("%s %s (%s)\n", colorCell(*rgb), name, rgb.HexString())
			return nil
		},
	}

	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", -1,
		"detection tolerance between 0 and 1 (negative uses the daemon default)")

	return cmd
}

func NewMatchCommand() *cobra.Command {
	var tolerance float64

	cmd := &cobra.Command{
		Use:     "match <color>",
		Short:   "Check whether the current color matches a standard color",
		GroupID: gBasic,
		Long: `Check whether the current reading qualifies as the named standard color.

Exits non-zero when the color does not match, so it can gate scripts:

  tinge match green && ./deploy.sh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matched, err := apiClient.MatchColor(args[0], tolerance)
			if err != nil {
				return fmt.Errorf("failed to match color: %w", err)
			}

			if !matched {
				return fmt.Errorf("current color does not match %s", args[0])
			}

			cmd.Printf("matched %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().Float64VarP(&tolerance, "tolerance", "t", -1,
		"match tolerance between 0 and 1 (negative uses the daemon default)")

	return cmd
}

func NewRangeCommand() *cobra.Command {
	r := chroma.Range{}

	cmd := &cobra.Command{
		Use:     "range",
		Short:   "Check whether the current color falls inside an HSV box",
		GroupID: gBasic,
		Long: `Check whether the current reading falls inside an HSV box.

A hue-min greater than hue-max selects the arc wrapping through 0, so
--hue-min 340 --hue-max 20 covers red. Exits non-zero when the color is
outside the box.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inRange, err := apiClient.MatchRange(r)
			if err != nil {
				return fmt.Errorf("failed to match range: %w", err)
			}

			if !inRange {
				return fmt.Errorf("current color is outside the range")
			}

			cmd.Println("in range")
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&r.HueMin, "hue-min", 0, "minimum hue in degrees")
	f.Float64Var(&r.HueMax, "hue-max", 360, "maximum hue in degrees")
	f.Float64Var(&r.SatMin, "sat-min", 0, "minimum saturation")
	f.Float64Var(&r.SatMax, "sat-max", 1, "maximum saturation")
	f.Float64Var(&r.ValMin, "val-min", 0, "minimum value")
	f.Float64Var(&r.ValMax, "val-max", 1, "maximum value")

	return cmd
}
