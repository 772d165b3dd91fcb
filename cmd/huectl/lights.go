package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dokzlo13/huetoolkit/internal/app"
	"github.com/dokzlo13/huetoolkit/internal/color"
	"github.com/dokzlo13/huetoolkit/internal/hue"
)

// stateFlags are the flags shared by every command that pushes a light state.
type stateFlags struct {
	on         bool
	off        bool
	bri        int
	sat        int
	hue        int
	ct         int
	xy         []float64
	color      string
	xyColor    string
	alert      string
	effect     string
	transition time.Duration
}

func (f *stateFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.on, "on", false, "turn the light on")
	fs.BoolVar(&f.off, "off", false, "turn the light off")
	fs.IntVar(&f.bri, "bri", 0, "brightness, 0-255")
	fs.IntVar(&f.sat, "sat", 0, "saturation, 0-255")
	fs.IntVar(&f.hue, "hue", 0, "hue, 0-65535")
	fs.IntVar(&f.ct, "ct", 0, "color temperature in mireds")
	fs.Float64SliceVar(&f.xy, "xy", nil, "CIE xy coordinates, e.g. 0.3,0.4")
	fs.StringVar(&f.color, "color", "", "color name or RGB hex, sets hue, sat and bri")
	fs.StringVar(&f.xyColor, "xy-color", "", "RGB hex converted to CIE xy")
	fs.StringVar(&f.alert, "alert", "", "alert effect: "+strings.Join(hue.AlertValues, ", "))
	fs.StringVar(&f.effect, "effect", "", "dynamic effect: "+strings.Join(hue.EffectValues, ", "))
	fs.DurationVar(&f.transition, "transition", 0, "transition time, rounded down to 100ms")
}

// build turns the flags that were given into a light state.
func (f *stateFlags) build(fs *pflag.FlagSet) (*hue.LightState, error) {
	if f.on && f.off {
		return nil, errors.New("--on and --off are mutually exclusive")
	}

	s := &hue.LightState{}
	switch {
	case f.on:
		s.SetOn(true)
	case f.off:
		s.SetOn(false)
	}

	if fs.Changed("color") {
		if err := s.SetColor(f.color); err != nil {
			return nil, err
		}
	}
	if fs.Changed("bri") {
		s.SetBrightness(f.bri)
	}
	if fs.Changed("sat") && !s.SetSaturation(f.sat) {
		return nil, fmt.Errorf("--sat %d out of range 0-255", f.sat)
	}
	if fs.Changed("hue") {
		s.SetHue(f.hue)
	}
	if fs.Changed("ct") {
		s.SetColorTemperature(f.ct)
	}
	if fs.Changed("xy") {
		if len(f.xy) != 2 {
			return nil, fmt.Errorf("--xy takes two values, got %d", len(f.xy))
		}
		s.SetXY(f.xy[0], f.xy[1])
	}
	if fs.Changed("xy-color") {
		if err := s.SetXYFromHex(f.xyColor); err != nil {
			return nil, err
		}
	}
	if fs.Changed("alert") && !s.SetAlert(f.alert) {
		return nil, fmt.Errorf("--alert %q not one of %s", f.alert, strings.Join(hue.AlertValues, ", "))
	}
	if fs.Changed("effect") && !s.SetEffect(f.effect) {
		return nil, fmt.Errorf("--effect %q not one of %s", f.effect, strings.Join(hue.EffectValues, ", "))
	}
	if fs.Changed("transition") {
		s.SetTransition(f.transition)
	}

	if s.IsEmpty() {
		return nil, errors.New("nothing to set, pass at least one state flag")
	}
	return s, nil
}

func (c *cli) lightsCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "lights",
		Short: "List the lights paired with the bridge",
		Args:  cobra.NoArgs,
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			lights, err := a.Client.GetLights(ctx, full)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if full {
				fmt.Fprintln(w, "ID\tNAME\tON\tBRI\tHUE\tSAT\tCOLOR")
			} else {
				fmt.Fprintln(w, "ID\tNAME")
			}
			for _, l := range lights {
				if !full {
					fmt.Fprintf(w, "%s\t%s\n", l.ID, l.Name)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", l.ID, l.Name, stateColumns(l.State))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().BoolVar(&full, "full", false, "fetch the state of every light")
	return cmd
}

// stateColumns renders on, bri, hue, sat and a preview as tab separated cells.
func stateColumns(s *hue.LightState) string {
	if s == nil {
		return "-\t-\t-\t-\t-"
	}
	cell := func(v int, ok bool) string {
		if !ok {
			return "-"
		}
		return fmt.Sprint(v)
	}

	on := "-"
	if v, ok := s.On(); ok {
		on = fmt.Sprint(v)
	}
	bri, hasBri := s.Brightness()
	h, hasHue := s.Hue()
	sat, hasSat := s.Saturation()

	preview := "-"
	if hasBri && hasHue && hasSat {
		preview = color.Preview(color.HueColor{Hue: h, Saturation: sat, Brightness: bri})
	}
	return strings.Join([]string{on, cell(bri, hasBri), cell(h, hasHue), cell(sat, hasSat), preview}, "\t")
}

func (c *cli) lightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "light <id>",
		Short: "Show a light and its current state",
		Args:  cobra.ExactArgs(1),
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			l, err := a.Client.GetLight(ctx, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\t%s\n", l.ID)
			fmt.Fprintf(w, "Name\t%s\n", l.Name)
			fmt.Fprintf(w, "Type\t%s\n", l.Type)
			fmt.Fprintf(w, "Model\t%s\n", l.ModelID)
			fmt.Fprintf(w, "Software\t%s\n", l.SoftwareVersion)
			if l.State != nil {
				state, err := json.Marshal(l.State)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "State\t%s\n", state)
			}
			return w.Flush()
		}),
	}
}

func (c *cli) setCmd() *cobra.Command {
	flags := &stateFlags{}
	cmd := &cobra.Command{
		Use:   "set <id>...",
		Short: "Push a state to one or more lights",
		Example: `  huectl set 1 --on --color tomato
  huectl set 1 2 3 --color "#00ff00" --bri 80 --transition 2s
  huectl set 4 --alert lselect`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			state, err := flags.build(cmd.Flags())
			if err != nil {
				return err
			}
			var errs []error
			for _, id := range args {
				if err := a.Client.SetLightState(ctx, id, state); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}),
	}
	flags.register(cmd.Flags())
	return cmd
}

func (c *cli) allOffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all-off",
		Short: "Turn every light off",
		Args:  cobra.NoArgs,
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			return a.Client.SetAllOff(ctx)
		}),
	}
}

func (c *cli) allSetCmd() *cobra.Command {
	flags := &stateFlags{}
	cmd := &cobra.Command{
		Use:   "all-set",
		Short: "Push a state to every light",
		Args:  cobra.NoArgs,
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			state, err := flags.build(cmd.Flags())
			if err != nil {
				return err
			}
			return a.Client.SetAllToState(ctx, state)
		}),
	}
	flags.register(cmd.Flags())
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the bridge configuration and whitelisted users",
		Args:  cobra.NoArgs,
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			b, err := a.Client.GetConfig(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Name\t%s\n", b.Name)
			fmt.Fprintf(w, "Address\t%s\n", b.IPAddress)
			fmt.Fprintf(w, "MAC\t%s\n", b.MACAddress)
			fmt.Fprintf(w, "Netmask\t%s\n", b.NetworkMask)
			fmt.Fprintf(w, "Gateway\t%s\n", b.GatewayIPAddress)
			fmt.Fprintf(w, "DHCP\t%t\n", b.DHCP)
			if b.ProxyAddress != "" {
				fmt.Fprintf(w, "Proxy\t%s:%d\n", b.ProxyAddress, b.ProxyPort)
			}
			fmt.Fprintf(w, "Whitelist\t%d users\n", len(b.Whitelist))
			for _, u := range b.Whitelist {
				fmt.Fprintf(w, "\t%s\t%s\n", u.Username, u.DeviceType)
			}
			return w.Flush()
		}),
	}
}
