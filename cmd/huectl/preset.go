package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/huetoolkit/internal/app"
	"github.com/dokzlo13/huetoolkit/internal/hue"
)

func (c *cli) presetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Save and apply named light states",
	}
	cmd.AddCommand(c.presetSaveCmd(), c.presetApplyCmd(), c.presetListCmd(), c.presetDeleteCmd())
	return cmd
}

func (c *cli) presetSaveCmd() *cobra.Command {
	flags := &stateFlags{}
	var from string
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a preset from flags or from the current state of a light",
		Example: `  huectl preset save reading --on --color "#ffd27f" --bri 200
  huectl preset save desk --from 3`,
		Args: cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			var state *hue.LightState
			if from != "" {
				client, err := a.Bridge()
				if err != nil {
					return err
				}
				l, err := client.GetLight(ctx, from)
				if err != nil {
					return err
				}
				state = snapshot(l.State)
			} else {
				var err error
				if state, err = flags.build(cmd.Flags()); err != nil {
					return err
				}
			}

			p, err := a.Presets.Save(args[0], state)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved preset %q (%s)\n", p.Name, p.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "copy the current state of this light")
	flags.register(cmd.Flags())
	return cmd
}

// snapshot keeps the parts of a reported state that can be pushed back.
// Alert and effect are transient and colormode is read-only.
func snapshot(s *hue.LightState) *hue.LightState {
	out := &hue.LightState{}
	if s == nil {
		return out
	}
	if v, ok := s.On(); ok {
		out.SetOn(v)
	}
	if v, ok := s.Brightness(); ok {
		out.SetBrightness(v)
	}
	mode, _ := s.ColorMode()
	switch mode {
	case "xy":
		if x, y, ok := s.XY(); ok {
			out.SetXY(x, y)
		}
	case "ct":
		if v, ok := s.ColorTemperature(); ok {
			out.SetColorTemperature(v)
		}
	default:
		if v, ok := s.Hue(); ok {
			out.SetHue(v)
		}
		if v, ok := s.Saturation(); ok {
			out.SetSaturation(v)
		}
	}
	return out
}

func (c *cli) presetApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <name> <light-id>...",
		Short: "Push a saved preset to lights",
		Args:  cobra.MinimumNArgs(2),
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			return a.Presets.Apply(ctx, a.Client, args[0], args[1:]...)
		}),
	}
}

func (c *cli) presetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			presets, err := a.Presets.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tUPDATED\tSTATE")
			for _, p := range presets {
				state, err := json.Marshal(p.State)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.UpdatedAt.Local().Format("2006-01-02 15:04"), state)
			}
			return w.Flush()
		}),
	}
}

func (c *cli) presetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>...",
		Short: "Delete saved presets",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			var errs []error
			for _, name := range args {
				if err := a.Presets.Delete(name); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}),
	}
}
