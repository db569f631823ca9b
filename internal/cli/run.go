package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/draftspec/internal/cache"
	"github.com/ariel-frischer/draftspec/internal/config"
	"github.com/ariel-frischer/draftspec/internal/filter"
	"github.com/ariel-frischer/draftspec/internal/gitimpact"
	"github.com/ariel-frischer/draftspec/internal/history"
	"github.com/ariel-frischer/draftspec/internal/middleware"
	"github.com/ariel-frischer/draftspec/internal/output"
	"github.com/ariel-frischer/draftspec/internal/reporter"
	"github.com/ariel-frischer/draftspec/internal/runner"
	"github.com/ariel-frischer/draftspec/internal/scripthost"
	"github.com/ariel-frischer/draftspec/internal/specctx"
	"github.com/ariel-frischer/draftspec/internal/version"
	"github.com/ariel-frischer/draftspec/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run [scripts...]",
	Short: "Compile and run one or more spec scripts",
	Long: `Compiles each given spec script through the Script Host, builds the
combined spec tree, and runs it through the Spec Runner.

If no scripts are given, every *_spec.go file under the current directory is
discovered and run.`,
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	runCmd.GroupID = GroupExecution
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("parallelism", 0, "max concurrent specs per context (overrides run.max_parallelism)")
	runCmd.Flags().Bool("bail", false, "stop after the first spec failure (overrides run.bail)")
	runCmd.Flags().StringSlice("tags", nil, "only run specs carrying at least one of these tags")
	runCmd.Flags().StringSlice("exclude-tags", nil, "skip specs carrying any of these tags")
	runCmd.Flags().String("grep", "", "only run specs whose description matches this regular expression")
	runCmd.Flags().String("since", "", "only run specs in files changed since this git ref (overrides filters.affected_since)")
	runCmd.Flags().Bool("watch", false, "re-run all given scripts whenever a .go file in their directories changes")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	scripts, err := resolveScripts(args)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return fmt.Errorf("no spec scripts found")
	}

	watchFlag, _ := cmd.Flags().GetBool("watch")
	if watchFlag || cfg.Discover.Watch {
		return watchAndRun(cmd, cfg, scripts)
	}

	started := time.Now()
	report, err := executeScripts(cmd, cfg, scripts)
	historyErr := err
	if historyErr == nil && report.Totals[reporter.Failed] > 0 {
		historyErr = fmt.Errorf("%d specs failed", report.Totals[reporter.Failed])
	}
	recordHistory(cfg, "run", strings.Join(scripts, ","), historyErr, started)
	if err != nil {
		return err
	}
	if report.Totals[reporter.Failed] > 0 {
		os.Exit(ExitSpecFailures)
	}
	return nil
}

// applyRunFlags layers command-line overrides on top of the loaded
// Configuration (flags win, the way the teacher's commands treat cobra flags
// as the final override above config-file/env values).
func applyRunFlags(cmd *cobra.Command, cfg *config.Configuration) {
	if v, _ := cmd.Flags().GetInt("parallelism"); v > 0 {
		cfg.Run.MaxParallelism = v
	}
	if v, _ := cmd.Flags().GetBool("bail"); v {
		cfg.Run.Bail = true
	}
	if v, _ := cmd.Flags().GetString("since"); v != "" {
		cfg.Filters.AffectedSince = v
	}
}

// resolveScripts expands args into a concrete list of script paths, falling
// back to a `*_spec.go` filesystem walk when none are given.
func resolveScripts(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	var found []string
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, "_spec.go") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering spec scripts: %w", err)
	}
	return found, nil
}

// executeScripts loads every script through the Script Host, merges the
// resulting trees under a synthetic root, and drives one Runner invocation.
func executeScripts(cmd *cobra.Command, cfg *config.Configuration, scripts []string) (reporter.Report, error) {
	c := cache.New(cache.Options{
		Directory: cfg.Cache.Directory,
		Enabled:   cfg.Cache.Enabled,
		LRUSize:   cfg.Cache.LRUSize,
	})

	host := scripthost.New(scripthost.Options{
		Cache:            c,
		FrameworkVersion: version.Version,
	}, filepath.Join(cfg.Cache.Directory, "build"))

	root := specctx.NewContext("", nil)
	ctx := cmd.Context()

	spin := output.NewCompileSpinner(cmd.OutOrStdout(), fmt.Sprintf("compiling %d spec scripts", len(scripts)))
	spin.Start()
	for _, script := range scripts {
		tree, err := host.Load(ctx, script)
		if err != nil {
			spin.Stop()
			return reporter.Report{}, fmt.Errorf("loading %s: %w", script, err)
		}
		tree.Parent = root
		root.Children = append(root.Children, tree)
	}
	spin.Stop()

	preds, err := buildFilters(cmd, cfg)
	if err != nil {
		return reporter.Report{}, err
	}

	runCfg := runner.Config{
		MaxDegreeOfParallelism: cfg.Run.MaxParallelism,
		Bail:                   cfg.Run.Bail,
		Middlewares:            buildMiddlewares(cfg),
		Reporters:              []reporter.Reporter{reporter.NewConsole(cmd.OutOrStdout())},
		Filters:                preds,
		ExclusiveRun:           cfg.Run.Exclusive,
		CacheDir:               cfg.Cache.Directory,
	}

	report, err := runner.Run(ctx, root, runCfg)
	output.PrintRunSeparator(cmd.OutOrStdout())
	return report, err
}

func buildMiddlewares(cfg *config.Configuration) []middleware.Middleware {
	var mws []middleware.Middleware
	if cfg.Run.RetryAttempts > 1 {
		mws = append(mws, middleware.Retry(cfg.Run.RetryAttempts, cfg.Run.RetryDelay))
	}
	if cfg.Run.Timeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Run.Timeout))
	}
	return mws
}

func buildFilters(cmd *cobra.Command, cfg *config.Configuration) ([]filter.Predicate, error) {
	var preds []filter.Predicate

	tags, _ := cmd.Flags().GetStringSlice("tags")
	if len(tags) == 0 && cfg.Filters.TagsInclude != "" {
		tags = strings.Split(cfg.Filters.TagsInclude, ",")
	}
	if len(tags) > 0 {
		preds = append(preds, filter.TagInclude(tags...))
	}

	excludeTags, _ := cmd.Flags().GetStringSlice("exclude-tags")
	if len(excludeTags) == 0 && cfg.Filters.TagsExclude != "" {
		excludeTags = strings.Split(cfg.Filters.TagsExclude, ",")
	}
	if len(excludeTags) > 0 {
		preds = append(preds, filter.TagExclude(excludeTags...))
	}

	grep, _ := cmd.Flags().GetString("grep")
	if grep == "" {
		grep = cfg.Filters.Description
	}
	if grep != "" {
		pred, err := filter.DescriptionMatch(grep)
		if err != nil {
			return nil, fmt.Errorf("invalid --grep pattern: %w", err)
		}
		preds = append(preds, pred)
	}

	if cfg.Filters.AffectedSince != "" {
		pred, err := gitimpact.ChangedPredicate(cfg.Filters.AffectedSince)
		if err != nil {
			return nil, fmt.Errorf("resolving affected specs since %s: %w", cfg.Filters.AffectedSince, err)
		}
		preds = append(preds, filter.Affected(pred))
	}

	return preds, nil
}

// watchAndRun runs scripts once, then re-runs them every time the watcher
// observes a change, until the command's context is cancelled (Ctrl-C).
func watchAndRun(cmd *cobra.Command, cfg *config.Configuration, scripts []string) error {
	roots := make(map[string]bool, len(scripts))
	for _, s := range scripts {
		roots[filepath.Dir(s)] = true
	}
	dirs := make([]string, 0, len(roots))
	for d := range roots {
		dirs = append(dirs, d)
	}

	w, err := watch.New(dirs, []string{".go"})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	if _, err := executeScripts(cmd, cfg, scripts); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}

	return w.Run(cmd.Context(), func(changed []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "\nchanged: %s\n", strings.Join(changed, ", "))
		if _, err := executeScripts(cmd, cfg, scripts); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	})
}

func recordHistory(cfg *config.Configuration, command, spec string, runErr error, started time.Time) {
	stateDir := filepath.Join(cfg.Cache.Directory, "..", "state")
	w := history.NewWriter(stateDir, 0)
	exitCode := 0
	if runErr != nil {
		exitCode = 1
	}
	w.LogCommand(command, spec, exitCode, time.Since(started))
}
