package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"

	"github.com/maniglio/tinge/pkg/chroma"
)

func parseFloatArg(args []string, valueName string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

// colorCell renders a small true-color block of the given color for
// terminals that support 24-bit escapes.
func colorCell(rgb chroma.RGB) string {
	return color.BgRGB(int(rgb.R), int(rgb.G), int(rgb.B)).Sprint("  ")
}
