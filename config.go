package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"go-pairs/internal/config"
	"go-pairs/internal/game"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	difficulties string
	symbols      []string
	logLevel     string
	server       string
	token        string

	difficulty  string
	name        string
	bell        bool
	seed        int64
	settleDelay time.Duration

	historyLimit      int
	rankingLimit      int
	rankingDifficulty string
	player            string
	watch             bool

	bind      string
	port      int
	db        string
	jwtSecret string
	tokenTTL  time.Duration
	publicURL string
	ssh       string
	hostKey   string
}

func (c *Config) validate() error {
	if c.settleDelay < 0 {
		return errors.New("--settle-delay must not be negative")
	}
	if c.historyLimit < 0 || c.rankingLimit < 0 {
		return errors.New("--limit must not be negative")
	}
	return nil
}

func (c *Config) validateServe() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return nil
}

func (c *Config) logger(prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(c.logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", c.logLevel, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	}), nil
}

// table loads the difficulty table and, when --symbols is given, swaps in
// the symbols read from those files.
func (c *Config) table() (config.Table, error) {
	t, err := config.Load(c.difficulties)
	if err != nil {
		return config.Table{}, err
	}
	if len(c.symbols) == 0 {
		return t, nil
	}
	alphabet, err := game.LoadSymbols(c.symbols)
	if err != nil {
		return config.Table{}, err
	}
	return config.NewTable(alphabet, t.Difficulties())
}

func (c *Config) rand() *rand.Rand {
	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// bindEnv lets every flag in fs be set from a PAIRS_* environment variable.
// Flags given on the command line still win.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PAIRS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "A memory card game for the terminal",
		Long: `pairs deals a grid of face-down cards. Flip two at a time and find
every matching pair in as few moves and as little time as you can.

Examples:
  pairs play --difficulty hard
  pairs play --server http://localhost:3000 --token $TOKEN
  pairs serve --jwt-secret s3cret --ssh :23234
  pairs ranking --server http://localhost:3000 --watch`,
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.validate()
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.StringVar(&cfg.difficulties, "difficulties", "", "path to a difficulty table in YAML (env: PAIRS_DIFFICULTIES)")
	pfs.StringSliceVar(&cfg.symbols, "symbols", nil, "files or directories of card symbols (env: PAIRS_SYMBOLS)")
	pfs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, error (env: PAIRS_LOG_LEVEL)")
	pfs.StringVar(&cfg.server, "server", "", "ranking server URL (env: PAIRS_SERVER)")
	pfs.StringVar(&cfg.token, "token", "", "player write token for the ranking server (env: PAIRS_TOKEN)")
	bindEnv(v, pfs)

	cmd.AddCommand(
		newPlayCmd(cfg, v),
		newHistoryCmd(cfg, v),
		newRankingCmd(cfg, v),
		newServeCmd(cfg, v),
		newTokenCmd(cfg, v),
		newDifficultiesCmd(cfg),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("pairs v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
