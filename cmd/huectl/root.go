package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dokzlo13/huetoolkit/internal/app"
	"github.com/dokzlo13/huetoolkit/internal/config"
)

const version = "huectl v0.3.0"

// cli holds the persistent flags and the configuration they resolve to.
type cli struct {
	configPath string
	bridge     string
	token      string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "huectl",
		Short:         "huectl controls Philips Hue lights through the bridge REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default is ./huectl.yaml, then ~/.huectl/config.yaml)")
	flags.StringVar(&c.bridge, "bridge", "", "bridge address, overrides hue.bridge")
	flags.StringVar(&c.token, "token", "", "bridge username, overrides hue.token")
	flags.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		c.lightsCmd(),
		c.lightCmd(),
		c.setCmd(),
		c.allOffCmd(),
		c.allSetCmd(),
		c.configCmd(),
		c.colorsCmd(),
		c.convertCmd(),
		c.presetCmd(),
		c.historyCmd(),
		c.discoverCmd(),
		c.registerCmd(),
		c.runCmd(),
		versionCmd,
	)

	return root
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of huectl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

// init loads the configuration, applies flag overrides and sets up logging.
func (c *cli) init() error {
	path := c.configPath
	if path == "" {
		path = defaultConfigPath()
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}

	if c.bridge != "" {
		cfg.Hue.Bridge = c.bridge
	}
	if c.token != "" {
		cfg.Hue.Token = c.token
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg

	setupLogging(cfg.Log.GetLevel(), cfg.Log.UseJSON, cfg.Log.Colors)
	if path != "" {
		log.Debug().Str("config", path).Msg("Configuration loaded")
	}
	return nil
}

// defaultConfigPath returns the first config file that exists, or "".
func defaultConfigPath() string {
	candidates := []string{"huectl.yaml"}
	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".huectl", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

type appFunc func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error

// withApp opens the application for the duration of a command.
func (c *cli) withApp(fn appFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := app.New(c.cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close application")
			}
		}()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := a.Prune(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to prune storage")
		}
		return fn(ctx, a, cmd, args)
	}
}

// withBridge is withApp for commands that talk to the bridge.
func (c *cli) withBridge(fn appFunc) func(*cobra.Command, []string) error {
	return c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
		if _, err := a.Bridge(); err != nil {
			return err
		}
		return fn(ctx, a, cmd, args)
	})
}
