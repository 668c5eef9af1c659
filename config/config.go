package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ChristianF88/gcodex/gcode"
	"github.com/ChristianF88/gcodex/parser"
)

// DialectConfig selects the accepted address letters. Optional fields are
// pointers so that an absent key keeps the parser default.
type DialectConfig struct {
	Letters       string `toml:"letters"`
	CaseSensitive *bool  `toml:"caseSensitive"`
	FloatBits     *int   `toml:"floatBits"`
}

// LimitsConfig overrides individual resource ceilings; -1 means unbounded.
type LimitsConfig struct {
	MaxInputSize     *int64 `toml:"maxInputSize"`
	MaxBlocks        *int64 `toml:"maxBlocks"`
	MaxWordsPerBlock *int   `toml:"maxWordsPerBlock"`
	MaxLineLength    *int   `toml:"maxLineLength"`
	MaxLines         *int64 `toml:"maxLines"`
}

// TokenizerConfig overrides the behavioral toggles.
type TokenizerConfig struct {
	StrictComments          *bool `toml:"strictComments"`
	SkipEmptyLines          *bool `toml:"skipEmptyLines"`
	IgnoreUnknownCharacters *bool `toml:"ignoreUnknownCharacters"`
	SupportQuotedStrings    *bool `toml:"supportQuotedStrings"`
	ValidateChecksum        *bool `toml:"validateChecksum"`
	ValidateLineNumbers     *bool `toml:"validateLineNumbers"`
}

// CheckConfig configures the check command.
type CheckConfig struct {
	Files []string `toml:"files"`
}

// StatsConfig configures the stats command.
type StatsConfig struct {
	File     string `toml:"file"`
	PlotPath string `toml:"plotPath"`
}

// LiveConfig configures the live intake server.
type LiveConfig struct {
	Port          string `toml:"port"`
	ReadTimeout   string `toml:"readTimeout"`
	WindowMaxTime string `toml:"windowMaxTime"`
	WindowMaxSize int    `toml:"windowMaxSize"`
	SweepInterval int    `toml:"sweepInterval"`
}

type Config struct {
	Dialect   *DialectConfig   `toml:"dialect"`
	Limits    *LimitsConfig    `toml:"limits"`
	Tokenizer *TokenizerConfig `toml:"tokenizer"`
	Check     *CheckConfig     `toml:"check"`
	Stats     *StatsConfig     `toml:"stats"`
	Live      *LiveConfig      `toml:"live"`
}

func LoadConfig(configPath string) (*Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if _, err := toml.Decode(string(configData), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Dialect == nil {
		config.Dialect = &DialectConfig{}
	}
	if config.Limits == nil {
		config.Limits = &LimitsConfig{}
	}
	if config.Tokenizer == nil {
		config.Tokenizer = &TokenizerConfig{}
	}

	return config, nil
}

// ToOptions maps the dialect, limits and tokenizer sections onto parser
// options, leaving defaults in place for absent keys.
func (c *Config) ToOptions() (parser.Options, error) {
	opts := parser.DefaultOptions()

	if d := c.Dialect; d != nil {
		if d.Letters != "" {
			caseSensitive := false
			if d.CaseSensitive != nil {
				caseSensitive = *d.CaseSensitive
			}
			addr, err := gcode.NewAddressConfig(d.Letters, caseSensitive)
			if err != nil {
				return opts, fmt.Errorf("invalid dialect letters %q: %w", d.Letters, err)
			}
			opts.Addresses = addr
		} else if d.CaseSensitive != nil && *d.CaseSensitive {
			return opts, fmt.Errorf("caseSensitive requires explicit dialect letters")
		}
		if d.FloatBits != nil {
			opts.FloatBits = *d.FloatBits
		}
	}

	if l := c.Limits; l != nil {
		if l.MaxInputSize != nil {
			opts.Limits.MaxInputSize = boundedUint64(*l.MaxInputSize)
		}
		if l.MaxBlocks != nil {
			opts.Limits.MaxBlocks = boundedUint64(*l.MaxBlocks)
		}
		if l.MaxWordsPerBlock != nil {
			opts.Limits.MaxWordsPerBlock = boundedInt(*l.MaxWordsPerBlock)
		}
		if l.MaxLineLength != nil {
			opts.Limits.MaxLineLength = boundedInt(*l.MaxLineLength)
		}
		if l.MaxLines != nil {
			opts.Limits.MaxLines = boundedUint64(*l.MaxLines)
		}
	}

	if t := c.Tokenizer; t != nil {
		if t.StrictComments != nil {
			opts.StrictComments = *t.StrictComments
		}
		if t.SkipEmptyLines != nil {
			opts.SkipEmptyLines = *t.SkipEmptyLines
		}
		if t.IgnoreUnknownCharacters != nil {
			opts.IgnoreUnknownCharacters = *t.IgnoreUnknownCharacters
		}
		if t.SupportQuotedStrings != nil {
			opts.SupportQuotedStrings = *t.SupportQuotedStrings
		}
		if t.ValidateChecksum != nil {
			opts.ValidateChecksum = *t.ValidateChecksum
		}
		if t.ValidateLineNumbers != nil {
			opts.ValidateLineNumbers = *t.ValidateLineNumbers
		}
	}

	return opts, nil
}

// boundedUint64 maps negative config values to "unbounded".
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

// ValidateLive checks the fields the live command requires.
func (c *Config) ValidateLive() error {
	if c.Live == nil {
		return fmt.Errorf("live configuration section is required")
	}
	if c.Live.Port == "" {
		return fmt.Errorf("port is required in live configuration")
	}
	if c.Live.WindowMaxSize < 0 {
		return fmt.Errorf("windowMaxSize must not be negative")
	}
	if _, err := c.LiveWindowMaxTime(); err != nil {
		return err
	}
	if _, err := c.LiveReadTimeout(); err != nil {
		return err
	}
	return nil
}

// ValidateStats checks the fields the stats command requires.
func (c *Config) ValidateStats() error {
	if c.Stats == nil || c.Stats.File == "" {
		return fmt.Errorf("stats configuration requires a file")
	}
	return nil
}

// ValidateCheck checks the fields the check command requires.
func (c *Config) ValidateCheck() error {
	if c.Check == nil || len(c.Check.Files) == 0 {
		return fmt.Errorf("check configuration requires at least one file")
	}
	return nil
}

// LiveWindowMaxTime parses the window duration, defaulting to 2h.
func (c *Config) LiveWindowMaxTime() (time.Duration, error) {
	if c.Live == nil || c.Live.WindowMaxTime == "" {
		return 2 * time.Hour, nil
	}
	d, err := time.ParseDuration(c.Live.WindowMaxTime)
	if err != nil {
		return 0, fmt.Errorf("invalid windowMaxTime %q: %w", c.Live.WindowMaxTime, err)
	}
	return d, nil
}

// LiveReadTimeout parses the intake read timeout, defaulting to 30s.
func (c *Config) LiveReadTimeout() (time.Duration, error) {
	if c.Live == nil || c.Live.ReadTimeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Live.ReadTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid readTimeout %q: %w", c.Live.ReadTimeout, err)
	}
	return d, nil
}

// LiveWindowMaxSize returns the window entry cap, defaulting to 100000.
func (c *Config) LiveWindowMaxSize() int {
	if c.Live == nil || c.Live.WindowMaxSize == 0 {
		return 100000
	}
	return c.Live.WindowMaxSize
}

// LiveSweepInterval returns the reporting interval in seconds, default 10.
func (c *Config) LiveSweepInterval() int {
	if c.Live == nil || c.Live.SweepInterval == 0 {
		return 10
	}
	return c.Live.SweepInterval
}
