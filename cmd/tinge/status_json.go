package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/maniglio/tinge/pkg/calibration"
	"github.com/maniglio/tinge/pkg/chroma"
	"github.com/maniglio/tinge/pkg/config"
)

type statusJSON struct {
	Reading       statusReadingJSON     `json:"reading"`
	Calibration   *calibration.Overview `json:"calibration"`
	Schedule      *calibration.Schedule `json:"schedule"`
	Configuration *config.RawFileConfig `json:"configuration"`
}

type statusReadingJSON struct {
	Raw   chroma.RawReading `json:"raw"`
	RGB   chroma.RGB        `json:"rgb"`
	Hex   string            `json:"hex"`
	HSV   chroma.HSV        `json:"hsv"`
	Color string            `json:"color"`
}

func printStatusJSON(cmd *cobra.Command, data *statusData) error {
	out := statusJSON{
		Reading: statusReadingJSON{
			Raw:   *data.raw,
			RGB:   *data.rgb,
			Hex:   data.rgb.HexString(),
			HSV:   *data.hsv,
			Color: data.colorName,
		},
		Calibration:   data.overview,
		Schedule:      data.schedule,
		Configuration: data.config,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
