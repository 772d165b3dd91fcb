package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/huetoolkit/internal/color"
)

func (c *cli) colorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "colors [filter]",
		Short: "List the color names accepted by --color",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			if len(args) == 1 {
				filter = color.Normalize(args[0])
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tHEX\tHUE\tSAT\tBRI")
			for _, name := range color.Names() {
				if filter != "" && !strings.Contains(name, filter) {
					continue
				}
				hex, _ := color.Lookup(name)
				hc, err := color.FromHex(hex)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t#%s\t%d\t%d\t%d\n", name, hex, hc.Hue, hc.Saturation, hc.Brightness)
			}
			return w.Flush()
		},
	}
}

func (c *cli) convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <hex|name>...",
		Short: "Convert RGB hex codes or color names to hue, saturation and brightness",
		Example: `  huectl convert FF6347
  huectl convert "#00ff00" "dark red"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INPUT\tHUE\tSAT\tBRI\tPREVIEW")

			var errs []error
			for _, arg := range args {
				hc, err := convert(arg)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", arg, hc.Hue, hc.Saturation, hc.Brightness, color.Preview(hc))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
}

// convert accepts a color name or a hex string, names first.
func convert(value string) (color.HueColor, error) {
	if _, ok := color.Lookup(value); ok {
		return color.FromName(value)
	}
	return color.FromHex(value)
}
