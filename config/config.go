package config

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	EnvVarPrefix = "GUNZIP"

	DefaultConfigFile    = "gunzip.toml"
	DefaultNumWorkers    = 2
	DefaultTreeCacheSize = 128
	DefaultLogLevel      = "info"
	DefaultSuffix        = ".gz"

	MinNumWorkers = 1
	MaxNumWorkers = 64
	MaxTreeCache  = 1 << 16
)

var (
	// VERSION gets set during build
	VERSION = "0.0.0"
)

type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Config  *TOMLConfig  `toml:"config"`
	Decoder *TOMLDecoder `toml:"decoder"`
}

type TOMLConfig struct {
	NumWorkers int    `toml:"num_workers"`
	LogLevel   string `toml:"log_level"`
}

type TOMLDecoder struct {
	MaxOutputSize    int  `toml:"max_output_size"`
	TreeCacheSize    int  `toml:"tree_cache_size"`
	DisableTreeCache bool `toml:"disable_tree_cache"`
	DynamicOnly      bool `toml:"dynamic_only"`
}

type CLI struct {
	Files         []string `kong:"arg,help='Gzip files to decompress',type='existingfile'"`
	ConfigFile    string   `kong:"help='Path to the TOML config file',type='path',default='gunzip.toml',short='c'"`
	Stdout        bool     `kong:"help='Write decompressed data to stdout',short='s'"`
	Keep          bool     `kong:"help='Keep input files',short='k'"`
	Force         bool     `kong:"help='Overwrite existing output files',short='f'"`
	OutputDir     string   `kong:"help='Directory for decompressed files (default: next to the input)',type='path',short='o'"`
	VerboseHeader bool     `kong:"help='Print each member header',short='H'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	// Internal bits
	Ctx *kong.Context `kong:"-"`
}

func NewConfig() (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	cli, err := readCLIArgs(os.Args[1:])
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	tomlConfig, err := readTOML(cli.ConfigFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	return &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}, nil
}

func readCLIArgs(args []string) (*CLI, error) {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("gunzip"),
		kong.Description("Decompress gzip files"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create CLI parser")
	}

	cli.Ctx, err = parser.Parse(args)
	if err != nil {
		return nil, err
	}

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if len(cli.Files) == 0 {
		return errors.New("at least one file is required")
	}

	if cli.Stdout && cli.OutputDir != "" {
		return errors.New("--stdout and --output-dir are mutually exclusive")
	}

	return nil
}

// readTOML loads the config file. A missing file yields the defaults.
func readTOML(file string) (*TOML, error) {
	tomlConfig := &TOML{}

	data, err := os.ReadFile(file)
	switch {
	case os.IsNotExist(err):
		logrus.Debugf("config file %s not found, using defaults", file)
	case err != nil:
		return nil, errors.Wrap(err, "error reading file")
	default:
		if err := toml.Unmarshal(data, tomlConfig); err != nil {
			return nil, errors.Wrap(err, "error parsing TOML config")
		}
	}

	if err := setTOMLDefaults(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error setting TOML defaults")
	}

	if err := validateTOML(tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error validating TOML config")
	}

	return tomlConfig, nil
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Config == nil {
		t.Config = &TOMLConfig{}
	}

	if t.Decoder == nil {
		t.Decoder = &TOMLDecoder{}
	}

	if t.Config.NumWorkers == 0 {
		t.Config.NumWorkers = DefaultNumWorkers
	}

	if t.Config.LogLevel == "" {
		t.Config.LogLevel = DefaultLogLevel
	}

	if t.Decoder.TreeCacheSize == 0 {
		t.Decoder.TreeCacheSize = DefaultTreeCacheSize
	}

	return nil
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if err := validateTOMLConfig(t.Config); err != nil {
		return errors.Wrap(err, "config error(s)")
	}

	if err := validateTOMLDecoder(t.Decoder); err != nil {
		return errors.Wrap(err, "decoder error(s)")
	}

	return nil
}

func validateTOMLConfig(c *TOMLConfig) error {
	if c == nil {
		return errors.New("config cannot be empty")
	}

	if c.NumWorkers < MinNumWorkers || c.NumWorkers > MaxNumWorkers {
		return errors.Errorf("config.num_workers must be between %d and %d", MinNumWorkers, MaxNumWorkers)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "config.log_level %s is invalid", c.LogLevel)
	}

	return nil
}

func validateTOMLDecoder(d *TOMLDecoder) error {
	if d == nil {
		return errors.New("decoder cannot be empty")
	}

	if d.MaxOutputSize < 0 {
		return errors.New("decoder.max_output_size cannot be negative")
	}

	if d.TreeCacheSize < 1 || d.TreeCacheSize > MaxTreeCache {
		return errors.Errorf("decoder.tree_cache_size must be between 1 and %d", MaxTreeCache)
	}

	return nil
}

// LogLevel returns the effective log level; --debug wins over the config file.
func (c *Config) LogLevel() logrus.Level {
	if c.CLI != nil && c.CLI.Debug {
		return logrus.DebugLevel
	}
	level, err := logrus.ParseLevel(c.TOML.Config.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
