package ui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go-pairs/internal/config"
	"go-pairs/internal/game"
	"go-pairs/internal/leaderboard"
	"go-pairs/internal/scoring"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file. If empty, a key is
	// generated under the user config directory.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	Difficulty  string
	SettleDelay time.Duration
	Alphabet    []string
}

// SSHServer serves one game per SSH connection. Finished games go straight
// into the shared leaderboard.
type SSHServer struct {
	config  SSHServerConfig
	server  *ssh.Server
	table   config.Table
	ranking leaderboard.Local
	logger  *log.Logger
}

// NewSSHServer creates an SSH server that plays against the given service.
func NewSSHServer(cfg SSHServerConfig, table config.Table, service *leaderboard.Service, logger *log.Logger) (*SSHServer, error) {
	srv := &SSHServer{
		config:  cfg,
		table:   table,
		ranking: leaderboard.Local{Service: service},
		logger:  logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		hostKeyPath = config.UserPath("host_key")
	}
	if hostKeyPath == "" {
		hostKeyPath = "pairs_host_key"
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	model, err := s.newModel(sess.User(), time.Now().UnixNano())
	if err != nil {
		s.logger.Error("could not start game", "user", sess.User(), "error", err)
		return nil, nil
	}
	model.width = pty.Window.Width
	model.height = pty.Window.Height
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// newModel builds the model for one connection. History is kept in memory
// for the lifetime of the connection.
func (s *SSHServer) newModel(user string, seed int64) (*Model, error) {
	if !leaderboard.ValidName(user) {
		user = scoring.AnonymousPlayer
	}
	history := scoring.NewHistory(&scoring.MemoryStorage{})
	session, err := game.NewSession(s.table, s.config.Difficulty, game.SessionOptions{
		Alphabet:   s.config.Alphabet,
		Rand:       rand.New(rand.NewSource(seed)),
		History:    history,
		Submitter:  s.ranking,
		PlayerName: user,
	})
	if err != nil {
		return nil, err
	}
	return NewModel(Options{
		Session:     session,
		History:     history,
		Ranking:     s.ranking,
		SettleDelay: s.config.SettleDelay,
	}), nil
}

func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started", "user", sess.User(), "remote", sess.RemoteAddr().String())
		next(sess)
		s.logger.Info("session ended", "user", sess.User(), "remote", sess.RemoteAddr().String())
	}
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting SSH server", "address", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down SSH server")
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
