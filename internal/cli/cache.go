package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thinkingdata-korea/demo-data-generator/internal/config"
	"github.com/thinkingdata-korea/demo-data-generator/internal/rulecache"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the rule-set cache",
	}
	cmd.AddCommand(newCacheListCommand(rootOpts))
	cmd.AddCommand(newCacheClearCommand(rootOpts))
	return cmd
}

func cachePath(opts *RootOptions, flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return "", err
	}
	return cfg.CachePath, nil
}

func newCacheListCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List cached rule sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			path, err := cachePath(rootOpts, dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "resolving cache path", err)
			}
			store, err := rulecache.Open(path)
			if err != nil {
				_ = formatter.Error("E_CACHE", err.Error(), nil)
				return WrapExitError(ExitCommandError, "opening cache", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "listing cache", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(formatter.Writer, "cache is empty")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(formatter.Writer, "%s  %s  %6d bytes  %s\n",
					e.CacheKey, e.Provider, e.SizeBytes, e.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "cache database path")
	return cmd
}

func newCacheClearCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Remove all cached rule sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			path, err := cachePath(rootOpts, dbPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "resolving cache path", err)
			}
			store, err := rulecache.Open(path)
			if err != nil {
				_ = formatter.Error("E_CACHE", err.Error(), nil)
				return WrapExitError(ExitCommandError, "opening cache", err)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "clearing cache", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(map[string]any{"removed": removed})
			}
			fmt.Fprintf(formatter.Writer, "removed %d cached rule set(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "cache database path")
	return cmd
}
