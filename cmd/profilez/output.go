package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	valueColor  = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow, color.Bold)
)

// applyColorMode sets color.NoColor from the --color flag.
func applyColorMode(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		// fatih/color already disables itself when stdout is not a terminal.
	default:
		return fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", mode)
	}
	return nil
}

func printHeader(w io.Writer, title string) {
	headerColor.Fprintln(w, title)
}

func printField(w io.Writer, name, value string) {
	fmt.Fprintf(w, "  %-22s %s\n", name+":", valueColor.Sprint(value))
}

func printWarning(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "  "+format+"\n", args...)
}
