package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-pairs/internal/game"
	"go-pairs/internal/leaderboard"
	"go-pairs/internal/scoring"
	"go-pairs/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPlayCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.difficulty, "difficulty", "d", "easy", "difficulty level (env: PAIRS_DIFFICULTY)")
	fs.StringVarP(&cfg.name, "name", "n", "", "player name; asked for when empty (env: PAIRS_NAME)")
	fs.BoolVar(&cfg.bell, "bell", false, "ring the terminal bell on mismatches and wins (env: PAIRS_BELL)")
	fs.Int64Var(&cfg.seed, "seed", 0, "deck shuffle seed, 0 for random (env: PAIRS_SEED)")
	fs.DurationVar(&cfg.settleDelay, "settle-delay", ui.DefaultSettleDelay, "how long a mismatched pair stays visible (env: PAIRS_SETTLE_DELAY)")
	bindEnv(v, fs)

	return cmd
}

func runPlay(cfg *Config) error {
	if cfg.name != "" && !leaderboard.ValidName(cfg.name) {
		return fmt.Errorf("--name must be between %d and %d characters", leaderboard.MinNameLength, leaderboard.MaxNameLength)
	}
	table, err := cfg.table()
	if err != nil {
		return err
	}

	storage, err := scoring.NewJSONFileStorage()
	if err != nil {
		return err
	}
	history := scoring.NewHistory(storage)

	opts := game.SessionOptions{
		Rand:       cfg.rand(),
		History:    history,
		PlayerName: cfg.name,
	}
	uiOpts := ui.Options{
		History:     history,
		Names:       storage,
		SettleDelay: cfg.settleDelay,
		AskName:     cfg.name == "",
	}
	if cfg.server != "" {
		client := leaderboard.NewClient(cfg.server, cfg.token)
		opts.Submitter = client
		uiOpts.Ranking = client
	}
	if cfg.bell {
		uiOpts.Bell = os.Stderr
	}

	session, err := game.NewSession(table, cfg.difficulty, opts)
	if err != nil {
		return err
	}
	uiOpts.Session = session

	p := tea.NewProgram(ui.NewModel(uiOpts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running game: %w", err)
	}
	return nil
}

func newHistoryCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the local score history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := scoring.NewJSONFileStorage()
			if err != nil {
				return err
			}
			sh, err := scoring.NewHistory(storage).Load()
			if err != nil {
				return err
			}
			entries := sh.Entries
			if cfg.historyLimit > 0 && len(entries) > cfg.historyLimit {
				entries = entries[:cfg.historyLimit]
			}
			return ui.PrintHistory(cmd.OutOrStdout(), entries)
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&cfg.historyLimit, "limit", scoring.MaxHistoryEntries, "number of games to show (env: PAIRS_LIMIT)")
	bindEnv(v, fs)

	return cmd
}

func newRankingCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Show the shared ranking",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.server == "" {
				return errors.New("no ranking server configured (use --server or PAIRS_SERVER)")
			}
			client := leaderboard.NewClient(cfg.server, cfg.token)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRanking(ctx, cmd.OutOrStdout(), client, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.player, "player", "", "show one player's entries (env: PAIRS_PLAYER)")
	fs.StringVarP(&cfg.rankingDifficulty, "difficulty", "d", "", "only show one difficulty (env: PAIRS_DIFFICULTY)")
	fs.IntVar(&cfg.rankingLimit, "limit", leaderboard.MaxGlobalEntries, "number of entries to show (env: PAIRS_LIMIT)")
	fs.BoolVarP(&cfg.watch, "watch", "w", false, "keep printing new entries as they arrive (env: PAIRS_WATCH)")
	bindEnv(v, fs)

	return cmd
}

func runRanking(ctx context.Context, w io.Writer, client *leaderboard.Client, cfg *Config) error {
	var (
		entries []leaderboard.Entry
		err     error
	)
	if cfg.player != "" {
		entries, err = client.Player(ctx, cfg.player)
	} else {
		entries, err = client.Global(ctx, cfg.rankingDifficulty, cfg.rankingLimit)
	}
	if err != nil {
		return err
	}
	if err := ui.PrintRanking(w, entries); err != nil {
		return err
	}
	if !cfg.watch {
		return nil
	}

	fmt.Fprintln(w, "Watching for new scores, ctrl+c to stop.")
	err = client.Watch(ctx, func(e leaderboard.Entry) {
		fmt.Fprintf(w, "%s  %-20s %6d  %s  %s (%s)\n",
			e.Date.Local().Format("15:04:05"), e.PlayerName, e.Score, e.Time, e.Difficulty, scoring.Rate(e.Efficiency).Label)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newServeCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ranking server, and optionally SSH play",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateServe(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PAIRS_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 3000, "port to listen on (env: PAIRS_PORT)")
	fs.StringVar(&cfg.db, "db", "~/.config/go-pairs/ranking.db", "path to the ranking database (env: PAIRS_DB)")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", "", "secret for player write tokens; empty accepts unsigned writes (env: PAIRS_JWT_SECRET)")
	fs.DurationVar(&cfg.tokenTTL, "token-ttl", leaderboard.DefaultTokenTTL, "lifetime of minted tokens (env: PAIRS_TOKEN_TTL)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "URL players use to reach this server, shown as a QR code (env: PAIRS_PUBLIC_URL)")
	fs.StringVar(&cfg.ssh, "ssh", "", "also serve the game over SSH on this address, e.g. :23234 (env: PAIRS_SSH)")
	fs.StringVar(&cfg.hostKey, "host-key", "", "SSH host key path (env: PAIRS_HOST_KEY)")
	fs.StringVarP(&cfg.difficulty, "difficulty", "d", "easy", "starting difficulty for SSH players (env: PAIRS_DIFFICULTY)")
	fs.DurationVar(&cfg.settleDelay, "settle-delay", ui.DefaultSettleDelay, "how long a mismatched pair stays visible (env: PAIRS_SETTLE_DELAY)")
	bindEnv(v, fs)

	return cmd
}

func runServe(ctx context.Context, cfg *Config) error {
	logger, err := cfg.logger("pairs")
	if err != nil {
		return err
	}
	table, err := cfg.table()
	if err != nil {
		return err
	}

	store, err := leaderboard.Open(cfg.db)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := leaderboard.NewHub(logger)
	go hub.Run(ctx)

	service := leaderboard.NewService(store, table, hub)
	auth := leaderboard.NewAuth(cfg.jwtSecret, cfg.tokenTTL)
	if !auth.Enabled() {
		logger.Warn("no --jwt-secret set, score submissions are not authenticated")
	}

	server := leaderboard.NewServer(leaderboard.ServerConfig{
		Address:   net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		PublicURL: cfg.publicURL,
	}, service, hub, auth, logger)

	errCh := make(chan error, 2)
	running := 1
	go func() { errCh <- server.ListenAndServe(ctx) }()

	if cfg.ssh != "" {
		sshServer, err := ui.NewSSHServer(ui.SSHServerConfig{
			Address:     cfg.ssh,
			HostKeyPath: cfg.hostKey,
			IdleTimeout: 30 * time.Minute,
			Difficulty:  cfg.difficulty,
			SettleDelay: cfg.settleDelay,
		}, table, service, logger.WithPrefix("pairs-ssh"))
		if err != nil {
			return err
		}
		running++
		go func() { errCh <- sshServer.ListenAndServe(ctx) }()
	}

	// The first failure stops everything; a clean shutdown waits for both.
	var firstErr error
	for range running {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}

func newTokenCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <player>",
		Short: "Mint a write token for a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := leaderboard.NewAuth(cfg.jwtSecret, cfg.tokenTTL).Mint(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", "", "secret shared with the server (env: PAIRS_JWT_SECRET)")
	fs.DurationVar(&cfg.tokenTTL, "token-ttl", leaderboard.DefaultTokenTTL, "token lifetime (env: PAIRS_TOKEN_TTL)")
	bindEnv(v, fs)

	return cmd
}

func newDifficultiesCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "difficulties",
		Short: "List the difficulty levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := cfg.table()
			if err != nil {
				return err
			}
			return ui.PrintDifficulties(cmd.OutOrStdout(), table)
		},
	}
}
