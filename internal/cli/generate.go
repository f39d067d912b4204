package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thinkingdata-korea/demo-data-generator/internal/config"
	"github.com/thinkingdata-korea/demo-data-generator/internal/rulecache"
	"github.com/thinkingdata-korea/demo-data-generator/internal/rules"
	"github.com/thinkingdata-korea/demo-data-generator/internal/sim"
	"github.com/thinkingdata-korea/demo-data-generator/internal/sink"
	"github.com/thinkingdata-korea/demo-data-generator/internal/taxonomy"
)

// GenerateResult summarizes one generation run.
type GenerateResult struct {
	Users     int      `json:"users"`
	Records   int      `json:"records"`
	Days      []string `json:"days"`
	Seed      int64    `json:"seed"`
	CacheKey  string   `json:"cache_key"`
	CacheHit  bool     `json:"cache_hit"`
	OutputDir string   `json:"output_dir"`
}

type generateFlags struct {
	taxonomy  string
	output    string
	startDate string
	endDate   string
	users     int
	seed      int64
	workers   int
	rulesPath string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate event and user-profile data",
		Long: `Generate a multi-day stream of track and user-profile records from a
declared event taxonomy, shaped by the cached analysis rules for that
taxonomy. Output is one JSON Lines file per calendar day.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, &flags, cmd)
		},
	}

	cmd.Flags().StringVarP(&flags.taxonomy, "taxonomy", "t", "", "taxonomy YAML path")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory")
	cmd.Flags().StringVar(&flags.startDate, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.endDate, "end", "", "last day (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&flags.users, "users", "u", 0, "population size")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "run seed for reproducible output")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "simulation workers (0 = all cores)")
	cmd.Flags().StringVar(&flags.rulesPath, "rules", "", "rule-set JSON to import into the cache and use")

	return cmd
}

func runGenerate(opts *RootOptions, flags *generateFlags, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadGenerateConfig(opts.ConfigPath, flags, cmd)
	if err != nil {
		_ = formatter.Error("E_CONFIG", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}

	tax, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		_ = formatter.Error("E_TAXONOMY", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading taxonomy", err)
	}
	formatter.VerboseLog("Loaded taxonomy: %d events, hash %s", len(tax.Events), tax.ContentHash())

	rs, cacheKey, hit, err := loadRules(cmd.Context(), cfg, tax, flags.rulesPath)
	if err != nil {
		_ = formatter.Error("E_RULES", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading rules", err)
	}
	if !hit {
		slog.Warn("no cached rule set for taxonomy; generating with built-in defaults",
			"cache_key", cacheKey)
	}

	seed := cfg.Seed
	var ids sim.IDGenerator
	if !cfg.Seeded {
		seed = time.Now().UnixNano()
		ids = sim.UUIDs{}
		slog.Debug("unseeded run", "derived_seed", seed)
	}

	start, end, err := cfg.DateRange()
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving date range", err)
	}

	users := sim.NewPool(sim.PoolConfig{
		Size:      cfg.Users,
		Ratios:    cfg.Ratios(),
		StartDate: start,
		Platform:  cfg.Product.Platform,
		Seed:      seed,
		IDs:       ids,
	})

	types := sim.NewTypeRegistry(tax)
	asm := sim.NewAssembler(tax, rs, types, seed, cfg.EventsPerDay, cfg.Locale)
	runner := sim.NewRunner(asm, cfg.Workers)

	records, err := runner.Run(cmd.Context(), users, start, end)
	if err != nil {
		return WrapExitError(ExitCommandError, "simulation aborted", err)
	}

	writer, err := sink.NewWriter(cfg.OutputDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening output", err)
	}
	if err := writer.WriteAll(records); err != nil {
		_ = writer.Close()
		return WrapExitError(ExitCommandError, "writing output", err)
	}
	if err := writer.Close(); err != nil {
		return WrapExitError(ExitCommandError, "flushing output", err)
	}

	result := GenerateResult{
		Users:     len(users),
		Records:   len(records),
		Days:      writer.Files(),
		Seed:      seed,
		CacheKey:  cacheKey,
		CacheHit:  hit,
		OutputDir: cfg.OutputDir,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Generated %d records for %d users across %d day(s) in %s\n",
		result.Records, result.Users, len(result.Days), result.OutputDir)
	return nil
}

// loadGenerateConfig layers command flags over the file/env config.
func loadGenerateConfig(path string, flags *generateFlags, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if flags.taxonomy != "" {
		cfg.TaxonomyPath = flags.taxonomy
	}
	if flags.output != "" {
		cfg.OutputDir = flags.output
	}
	if flags.startDate != "" {
		cfg.StartDate = flags.startDate
	}
	if flags.endDate != "" {
		cfg.EndDate = flags.endDate
	}
	if flags.users > 0 {
		cfg.Users = flags.users
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flags.seed
		cfg.Seeded = true
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	return cfg, cfg.Validate()
}

// loadRules resolves the run's rule set: an explicit --rules file is
// decoded and imported into the cache, otherwise the cache is consulted
// under the taxonomy's derived key. A miss is not fatal.
func loadRules(ctx context.Context, cfg config.Config, tax *taxonomy.Taxonomy, rulesPath string) (*rules.RuleSet, string, bool, error) {
	key := rules.CacheKey(tax.ContentHash(), cfg.Provider, cfg.CacheProduct())

	store, err := rulecache.Open(cfg.CachePath)
	if err != nil {
		return nil, key, false, err
	}
	defer store.Close()

	if rulesPath != "" {
		data, err := os.ReadFile(rulesPath)
		if err != nil {
			return nil, key, false, fmt.Errorf("reading rules file: %w", err)
		}
		rs, err := rules.Decode(data)
		if err != nil {
			return nil, key, false, err
		}
		if err := store.Put(ctx, key, cfg.Provider, data); err != nil {
			return nil, key, false, err
		}
		return rs, key, true, nil
	}

	payload, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, key, false, err
	}
	if !ok {
		return rules.Empty(), key, false, nil
	}
	rs, err := rules.Decode(payload)
	if err != nil {
		// A corrupt cache entry degrades to defaults rather than failing
		// the run.
		slog.Warn("cached rule set is unreadable; using defaults",
			"cache_key", key, "error", err)
		return rules.Empty(), key, false, nil
	}
	return rs, key, true, nil
}
