package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ChristianF88/gcodex/config"
	"github.com/ChristianF88/gcodex/gcode"
	"github.com/ChristianF88/gcodex/parser"
	"github.com/ChristianF88/gcodex/version"
	cli "github.com/urfave/cli/v2"
)

// parseDate attempts to parse the build date
func parseDate(d string) time.Time {
	t, err := time.Parse(time.RFC3339, d)
	if err != nil {
		return time.Now()
	}
	return t
}

// Shared flag definitions to eliminate duplication
var (
	// Configuration flags
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to configuration file (mutually exclusive with other flags)",
	}

	// Dialect flags
	lettersFlag = &cli.StringFlag{
		Name:  "letters",
		Usage: "Accepted address letters (e.g., 'GXYZNMFST'); default accepts A-Z",
	}
	caseSensitiveFlag = &cli.BoolFlag{
		Name:  "caseSensitive",
		Usage: "Treat address letters case-sensitively (requires --letters)",
		Value: false,
	}
	floatBitsFlag = &cli.IntFlag{
		Name:  "floatBits",
		Usage: "Numeric parse precision: 32 or 64",
		Value: 64,
	}

	// Limit flags (negative means unbounded)
	maxInputSizeFlag = &cli.Int64Flag{
		Name:  "maxInputSize",
		Usage: "Maximum total input bytes",
		Value: 100 * 1024 * 1024,
	}
	maxBlocksFlag = &cli.Int64Flag{
		Name:  "maxBlocks",
		Usage: "Maximum emitted blocks",
		Value: 10_000_000,
	}
	maxWordsPerBlockFlag = &cli.IntFlag{
		Name:  "maxWordsPerBlock",
		Usage: "Maximum words per block",
		Value: 50,
	}
	maxLineLengthFlag = &cli.IntFlag{
		Name:  "maxLineLength",
		Usage: "Maximum bytes per line",
		Value: 256 * 1024,
	}
	maxLinesFlag = &cli.Int64Flag{
		Name:  "maxLines",
		Usage: "Maximum delimited lines",
		Value: 5_000_000,
	}

	// Tokenizer toggle flags
	strictCommentsFlag = &cli.BoolFlag{
		Name:  "strictComments",
		Usage: "Fail on unclosed '(' comments",
		Value: true,
	}
	ignoreUnknownFlag = &cli.BoolFlag{
		Name:  "ignoreUnknownCharacters",
		Usage: "Skip unknown characters instead of failing",
		Value: true,
	}
	quotedStringsFlag = &cli.BoolFlag{
		Name:  "supportQuotedStrings",
		Usage: "Enable quoted string values",
		Value: true,
	}
	validateChecksumFlag = &cli.BoolFlag{
		Name:  "validateChecksum",
		Usage: "Verify trailing *NNN checksums",
		Value: true,
	}
	validateLineNumbersFlag = &cli.BoolFlag{
		Name:  "validateLineNumbers",
		Usage: "Require strictly increasing N words",
		Value: true,
	}

	// Output flags
	plotPathFlag = &cli.StringFlag{
		Name:  "plotPath",
		Usage: "Path where to save the heatmap file (e.g., '/path/to/heatmap.html'). If not provided, no plot will be generated.",
	}
	compactFlag = &cli.BoolFlag{
		Name:  "compact",
		Usage: "Output compact JSON (no pretty printing)",
		Value: false,
	}
	plainFlag = &cli.BoolFlag{
		Name:  "plain",
		Usage: "Output plain text format for easy readability",
		Value: false,
	}
	tuiFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Launch TUI (Terminal User Interface) block inspector",
		Value: false,
	}

	// Live-specific flags
	portFlag = &cli.StringFlag{
		Name:  "port",
		Usage: "Address to listen on (e.g., ':5044')",
	}
	readTimeoutFlag = &cli.DurationFlag{
		Name:  "readTimeout",
		Usage: "Read timeout for the intake server",
		Value: 30 * time.Second,
	}
	windowMaxTimeFlag = &cli.DurationFlag{
		Name:  "windowMaxTime",
		Usage: "Maximum age of blocks in the sliding window",
		Value: 2 * time.Hour,
	}
	windowMaxSizeFlag = &cli.IntFlag{
		Name:  "windowMaxSize",
		Usage: "Maximum number of blocks in the sliding window",
		Value: 100000,
	}
	sweepIntervalFlag = &cli.IntFlag{
		Name:  "sweepInterval",
		Usage: "Seconds between reporting sweeps",
		Value: 10,
	}
)

func parseFlags() []cli.Flag {
	return []cli.Flag{
		lettersFlag,
		caseSensitiveFlag,
		floatBitsFlag,
		maxInputSizeFlag,
		maxBlocksFlag,
		maxWordsPerBlockFlag,
		maxLineLengthFlag,
		maxLinesFlag,
		strictCommentsFlag,
		ignoreUnknownFlag,
		quotedStringsFlag,
		validateChecksumFlag,
		validateLineNumbersFlag,
	}
}

// Shared validation functions
func validateConfigModeFlags(c *cli.Context, allowedFlags []string) error {
	// Create a map for quick lookup of allowed flags
	allowed := make(map[string]bool)
	for _, flag := range allowedFlags {
		allowed[flag] = true
	}

	// Check all possible flags
	flagsToCheck := []string{
		"letters", "caseSensitive", "floatBits", "maxInputSize", "maxBlocks",
		"maxWordsPerBlock", "maxLineLength", "maxLines", "strictComments",
		"ignoreUnknownCharacters", "supportQuotedStrings", "validateChecksum",
		"validateLineNumbers", "plotPath", "port", "readTimeout",
		"windowMaxTime", "windowMaxSize", "sweepInterval", "tui", "compact", "plain",
	}

	for _, flag := range flagsToCheck {
		if c.IsSet(flag) && !allowed[flag] {
			return fmt.Errorf("when using --config, only %v flags are allowed", allowedFlags)
		}
	}
	return nil
}

// buildOptions maps the shared parse flags onto parser options.
func buildOptions(c *cli.Context) (parser.Options, error) {
	opts := parser.DefaultOptions()

	if letters := c.String("letters"); letters != "" {
		addr, err := gcode.NewAddressConfig(letters, c.Bool("caseSensitive"))
		if err != nil {
			return opts, fmt.Errorf("invalid --letters: %w", err)
		}
		opts.Addresses = addr
	} else if c.Bool("caseSensitive") {
		return opts, fmt.Errorf("--caseSensitive requires --letters")
	}

	opts.FloatBits = c.Int("floatBits")
	opts.Limits.MaxInputSize = boundedUint64(c.Int64("maxInputSize"))
	opts.Limits.MaxBlocks = boundedUint64(c.Int64("maxBlocks"))
	opts.Limits.MaxWordsPerBlock = boundedInt(c.Int("maxWordsPerBlock"))
	opts.Limits.MaxLineLength = boundedInt(c.Int("maxLineLength"))
	opts.Limits.MaxLines = boundedUint64(c.Int64("maxLines"))
	opts.StrictComments = c.Bool("strictComments")
	opts.IgnoreUnknownCharacters = c.Bool("ignoreUnknownCharacters")
	opts.SupportQuotedStrings = c.Bool("supportQuotedStrings")
	opts.ValidateChecksum = c.Bool("validateChecksum")
	opts.ValidateLineNumbers = c.Bool("validateLineNumbers")

	if opts.FloatBits != 32 && opts.FloatBits != 64 {
		return opts, fmt.Errorf("--floatBits must be 32 or 64")
	}
	return opts, nil
}

func boundedUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

func boundedInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func validateFilesExist(files []string) error {
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", file)
		}
	}
	return nil
}

func validatePlotPath(plotPath string) error {
	if plotPath != "" {
		plotDir := filepath.Dir(plotPath)
		if plotDir == "." {
			plotDir, _ = os.Getwd()
		}
		if _, err := os.Stat(plotDir); os.IsNotExist(err) {
			return fmt.Errorf("plot directory does not exist: %s", plotDir)
		}
	}
	return nil
}

func outputConfigFromContext(c *cli.Context) OutputConfig {
	return OutputConfig{
		Compact: c.Bool("compact"),
		Plain:   c.Bool("plain"),
		TUI:     c.Bool("tui"),
	}
}

// Command handler functions

// handleCheckCommand processes the check command
func handleCheckCommand(c *cli.Context) error {
	configPath := c.String("config")
	if configPath != "" {
		return handleCheckConfigMode(c, configPath)
	}
	return handleCheckFlagsMode(c)
}

func handleCheckConfigMode(c *cli.Context, configPath string) error {
	if err := validateConfigModeFlags(c, []string{"compact", "plain"}); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateCheck(); err != nil {
		return err
	}
	if err := validateFilesExist(cfg.Check.Files); err != nil {
		return err
	}

	return CheckFromConfig(cfg, outputConfigFromContext(c))
}

func handleCheckFlagsMode(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("check requires at least one file argument")
	}
	if err := validateFilesExist(files); err != nil {
		return err
	}

	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	return Check(files, opts, outputConfigFromContext(c))
}

// handleStatsCommand processes the stats command
func handleStatsCommand(c *cli.Context) error {
	configPath := c.String("config")
	if configPath != "" {
		return handleStatsConfigMode(c, configPath)
	}
	return handleStatsFlagsMode(c)
}

func handleStatsConfigMode(c *cli.Context, configPath string) error {
	if err := validateConfigModeFlags(c, []string{"tui", "compact", "plain"}); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateStats(); err != nil {
		return err
	}
	if err := validateFilesExist([]string{cfg.Stats.File}); err != nil {
		return err
	}
	if err := validatePlotPath(cfg.Stats.PlotPath); err != nil {
		return err
	}

	return StatsFromConfig(cfg, outputConfigFromContext(c))
}

func handleStatsFlagsMode(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("stats requires at least one file argument")
	}
	if err := validateFilesExist(files); err != nil {
		return err
	}
	if err := validatePlotPath(c.String("plotPath")); err != nil {
		return err
	}

	opts, err := buildOptions(c)
	if err != nil {
		return err
	}
	return Stats(files, c.String("plotPath"), opts, outputConfigFromContext(c))
}

// handleLiveCommand processes the live command
func handleLiveCommand(c *cli.Context) error {
	configPath := c.String("config")
	if configPath != "" {
		return handleLiveConfigMode(c, configPath)
	}
	return handleLiveFlagsMode(c)
}

func handleLiveConfigMode(c *cli.Context, configPath string) error {
	if err := validateConfigModeFlags(c, []string{"compact", "plain"}); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateLive(); err != nil {
		return fmt.Errorf("invalid live configuration: %w", err)
	}

	fmt.Println("Running in live mode from config file:")
	return LiveFromConfig(cfg)
}

func handleLiveFlagsMode(c *cli.Context) error {
	if !c.IsSet("port") {
		return fmt.Errorf("port is required when not using --config")
	}

	opts, err := buildOptions(c)
	if err != nil {
		return err
	}

	fmt.Println("Running in live mode with CLI flags:")
	return Live(LiveParams{
		Port:          c.String("port"),
		ReadTimeout:   c.Duration("readTimeout"),
		WindowMaxTime: c.Duration("windowMaxTime"),
		WindowMaxSize: c.Int("windowMaxSize"),
		SweepInterval: c.Int("sweepInterval"),
	}, opts)
}

var App = &cli.App{
	Name:     "gcodex",
	Usage:    "Validate and analyze G-code programs, from files or a live stream",
	Version:  version.Version,
	Compiled: parseDate(version.Date),
	Commands: []*cli.Command{
		{
			Name:      "check",
			Usage:     "Validate G-code files and report the first error per file",
			ArgsUsage: "FILE [FILE...]",
			Flags: append([]cli.Flag{
				configFlag,
				compactFlag,
				plainFlag,
			}, parseFlags()...),
			Action: handleCheckCommand,
		},
		{
			Name:      "stats",
			Usage:     "Parse G-code files and report word statistics",
			ArgsUsage: "FILE [FILE...]",
			Flags: append([]cli.Flag{
				configFlag,
				plotPathFlag,
				tuiFlag,
				compactFlag,
				plainFlag,
			}, parseFlags()...),
			Action: handleStatsCommand,
		},
		{
			Name:  "live",
			Usage: "Receive G-code lines over TCP and report sliding-window statistics",
			Flags: append([]cli.Flag{
				configFlag,
				portFlag,
				readTimeoutFlag,
				windowMaxTimeFlag,
				windowMaxSizeFlag,
				sweepIntervalFlag,
				compactFlag,
				plainFlag,
			}, parseFlags()...),
			Action: handleLiveCommand,
		},
	},
}
