package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/huetoolkit/internal/discovery"
)

func (c *cli) discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Find bridges on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := discovery.Huego{}.Discover(cmd.Context())
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return discovery.ErrNoBridge
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tADDRESS")
			for _, f := range found {
				fmt.Fprintf(w, "%s\t%s\n", f.ID, f.Host)
			}
			return w.Flush()
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [address]",
		Short: "Create a bridge user; press the link button first",
		Long: `Create a whitelist user on a bridge. Press the round link button on the
bridge, then run this command within 30 seconds. Without an address the
configured bridge is used, or the first discovered one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := c.cfg.Hue.Bridge
			if len(args) == 1 {
				host = args[0]
			}

			var d discovery.Discoverer = discovery.Huego{}
			if host == "" {
				found, err := discovery.Pick(cmd.Context(), d, "")
				if err != nil {
					return err
				}
				host = found.Host
			}

			username, err := d.Register(cmd.Context(), host, c.cfg.Hue.DeviceType)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "hue:\n  bridge: %s\n  token: %s\n", host, username)
			return nil
		},
	}
}
