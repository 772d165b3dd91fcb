package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dokzlo13/huetoolkit/internal/app"
)

// debounce is how long the watcher waits for writes to settle.
const debounce = 200 * time.Millisecond

func (c *cli) runCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script against the bridge",
		Long: `Run a Lua script. Scripts can require("hue"), require("color") and
require("log"). With --watch the script is run again every time it is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: c.withBridge(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			path := args[0]
			if !watch {
				return c.runScript(ctx, a, path)
			}
			return c.watchScript(ctx, a, path)
		}),
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "run the script again whenever it changes")
	return cmd
}

// runScript runs path on a fresh Lua state.
func (c *cli) runScript(ctx context.Context, a *app.App, path string) error {
	rt, err := a.NewRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.DoFile(ctx, path, c.cfg.Script.Timeout.Duration())
}

// watchScript runs path once, then again after each change until ctx ends.
// Script errors are logged and do not stop the watch.
func (c *cli) watchScript(ctx context.Context, a *app.App, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	// Watch the directory; editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	run := func() {
		if err := c.runScript(ctx, a, abs); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Script failed")
		}
	}
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	log.Info().Str("path", path).Msg("Watching script for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		case <-timer.C:
			log.Info().Str("path", path).Msg("Script changed, running again")
			run()
		}
	}
}
