// Package main provides the CLI entrypoint for keydrill.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/keydrill/keydrill/internal/catalog"
	"github.com/keydrill/keydrill/internal/config"
	"github.com/keydrill/keydrill/internal/content"
	"github.com/keydrill/keydrill/internal/engine"
	"github.com/keydrill/keydrill/internal/export"
	"github.com/keydrill/keydrill/internal/model"
	"github.com/keydrill/keydrill/internal/stats"
	"github.com/keydrill/keydrill/internal/statsui"
	"github.com/keydrill/keydrill/internal/store"
	"github.com/keydrill/keydrill/internal/tui"
)

const defaultCurveWindow = 10

var (
	practiceLesson    string
	practiceCountdown int
	practiceTargetAcc float64
	practiceTargetWpm int
	practicePenalty   bool

	statsPlain       bool
	statsCurveWindow int

	resetForce bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "keydrill",
		Short:         "TUI typing tutor with lessons and progression",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	defaults := model.DefaultSettings()
	rootCmd.Flags().StringVar(&practiceLesson, "lesson", "", "lesson id (default: last practiced)")
	rootCmd.Flags().IntVar(&practiceCountdown, "countdown", 0, "session time budget in seconds (0 = none)")
	rootCmd.Flags().Float64Var(&practiceTargetAcc, "target-acc", defaults.TargetAccuracy, "default target accuracy (0-1)")
	rootCmd.Flags().IntVar(&practiceTargetWpm, "target-wpm", defaults.TargetWpm, "default target WPM")
	rootCmd.Flags().BoolVar(&practicePenalty, "backspace-penalty", defaults.BackspacePenalty, "penalize backspace use in speed scoring")

	rootCmd.AddCommand(newLessonsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func openEngine(ctx context.Context) (*engine.Engine, *store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	state, err := st.Load(ctx)
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}
	eng := engine.New(catalog.All(), st, content.New(), state)
	return eng, st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "lesson", &practiceLesson, fileCfg.Practice.Lesson)
	applyIntConfig(cmd, "countdown", &practiceCountdown, fileCfg.Practice.Countdown)
	applyFloatConfig(cmd, "target-acc", &practiceTargetAcc, fileCfg.Practice.TargetAccuracy)
	applyIntConfig(cmd, "target-wpm", &practiceTargetWpm, fileCfg.Practice.TargetWpm)
	applyBoolConfig(cmd, "backspace-penalty", &practicePenalty, fileCfg.Practice.BackspacePenalty)

	if err := validatePracticeFlags(); err != nil {
		return err
	}

	ctx := context.Background()
	eng, st, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeStore(st)

	settings := practiceSettings(cmd, fileCfg, eng.Settings())
	if settings != eng.Settings() {
		if err := eng.UpdateSettings(ctx, settings); err != nil {
			return err
		}
	}

	lesson, err := resolveLesson(eng, practiceLesson)
	if err != nil {
		return err
	}

	m, err := tui.NewModel(eng, lesson, time.Duration(practiceCountdown)*time.Second)
	if err != nil {
		return lessonStartError(lesson.ID, err)
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// practiceSettings overlays only explicitly set flag or config values onto
// the stored settings. An unflagged run with no config file leaves the
// stored settings untouched.
func practiceSettings(cmd *cobra.Command, fileCfg config.FileConfig, current model.Settings) model.Settings {
	out := current
	if cmd.Flags().Changed("target-acc") || fileCfg.Practice.TargetAccuracy != nil {
		out.TargetAccuracy = practiceTargetAcc
	}
	if cmd.Flags().Changed("target-wpm") || fileCfg.Practice.TargetWpm != nil {
		out.TargetWpm = practiceTargetWpm
	}
	if cmd.Flags().Changed("backspace-penalty") || fileCfg.Practice.BackspacePenalty != nil {
		out.BackspacePenalty = practicePenalty
	}
	return out
}

// resolveLesson prefers the explicit flag, then the last practiced lesson,
// then the first lesson.
func resolveLesson(eng *engine.Engine, flagID string) (model.Lesson, error) {
	if flagID != "" {
		lesson, ok := catalog.ByID(flagID)
		if !ok {
			return model.Lesson{}, fmt.Errorf("unknown lesson %q (run: keydrill lessons)", flagID)
		}
		return lesson, nil
	}
	if last := eng.Progress().LastAttempt; last != nil {
		if lesson, ok := catalog.ByID(last.LessonID); ok {
			return lesson, nil
		}
	}
	return catalog.First(), nil
}

func lessonStartError(lessonID string, err error) error {
	lines := []string{
		fmt.Sprintf("cannot practice %s: %v", lessonID, err),
		"Run: keydrill lessons",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func validatePracticeFlags() error {
	if practiceTargetAcc <= 0 || practiceTargetAcc > 1 {
		return fmt.Errorf("--target-acc must be between 0 and 1")
	}
	if practiceTargetWpm <= 0 {
		return fmt.Errorf("--target-wpm must be > 0")
	}
	if practiceCountdown < 0 {
		return fmt.Errorf("--countdown must be >= 0")
	}
	return nil
}

func newLessonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List lessons with unlock state and best scores",
		Args:  cobra.NoArgs,
		RunE:  runLessonsCmd,
	}
}

func runLessonsCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	eng, st, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeStore(st)
	return stats.RenderOverview(cmd.OutOrStdout(), eng.Lessons(), eng.Progress(), eng.AllAttempts())
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse progress and attempt history",
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window for trends")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	eng, st, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain {
		out := cmd.OutOrStdout()
		if err := stats.RenderOverview(out, eng.Lessons(), eng.Progress(), eng.AllAttempts()); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, ""); err != nil {
			return err
		}
		if err := stats.RenderTrends(out, eng.Lessons(), eng.AllAttempts(), statsCurveWindow, stats.TerminalWidth()); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, ""); err != nil {
			return err
		}
		return stats.RenderErrorChars(out, eng.AllAttempts())
	}

	m := statsui.NewModel(eng.Lessons(), eng.Progress(), eng.AllAttempts(), statsCurveWindow)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export settings, progress, and attempts as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	state, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	data, err := export.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if len(args) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	logErrf("Wrote %s\n", args[0])
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported JSON dump",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	state, err := export.Unmarshal(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	if err := st.Replace(ctx, state); err != nil {
		return fmt.Errorf("failed to apply import: %w", err)
	}
	logErrln("Import applied.")
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all progress and settings",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetForce, "force", false, "skip confirmation")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetForce {
		logErrf("This wipes all progress and attempts. Type 'yes' to continue: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(line) != "yes" {
			logErrln("Aborted.")
			return nil
		}
	}

	ctx := context.Background()
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	if err := st.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	logErrln("State reset.")
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := model.DefaultSettings()
	return fmt.Sprintf(`# keydrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# lesson = "l01"            # Lesson id to practice by default
# countdown = 0             # Session time budget in seconds (0 = none)
# target-acc = %.2f         # Default target accuracy (0-1)
# target-wpm = %d           # Default target WPM
# backspace-penalty = false # Penalize backspace use in speed scoring
`,
		defaults.TargetAccuracy,
		defaults.TargetWpm,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
