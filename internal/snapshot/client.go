package snapshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/snapvault/browser/internal/circuit"
	"github.com/snapvault/browser/internal/config"
)

// session is a scoped SSH connection plus an SFTP channel over it. Every SSA
// operation opens one, does its work, and closes it on every exit path —
// this adapter holds no long-lived connection pool.
type session struct {
	conn *ssh.Client
	sftp *sftp.Client
}

// sessionFactory builds a scoped session per call, parameterized by the
// snapshot host configuration.
type sessionFactory struct {
	cfg    config.SnapshotConfig
	logger *slog.Logger
}

func newSessionFactory(cfg config.SnapshotConfig, logger *slog.Logger) (*sessionFactory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionFactory{cfg: cfg, logger: logger.With("component", "snapshot")}, nil
}

// open dials SSH, starts an SFTP channel, and returns both wrapped in a
// session. Callers must call session.Close() on every exit path.
func (f *sessionFactory) open(ctx context.Context) (*session, error) {
	signer, err := loadSigner(f.cfg.SSHKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH private key: %w", err)
	}

	hostKeyCallback, err := f.hostKeyCallback()
	if err != nil {
		return nil, fmt.Errorf("failed to build host key callback: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            f.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         config.SSHTimeout,
	}

	addr := f.cfg.Host
	if addr == "" {
		return nil, fmt.Errorf("snapshot host is not configured")
	}

	type dialResult struct {
		conn *ssh.Client
		err  error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		conn, err := ssh.Dial("tcp", withDefaultPort(addr), clientConfig)
		resultCh <- dialResult{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("ssh dial failed: %w", res.err)
		}
		sftpClient, err := sftp.NewClient(res.conn)
		if err != nil {
			res.conn.Close()
			return nil, fmt.Errorf("sftp channel failed: %w", err)
		}
		return &session{conn: res.conn, sftp: sftpClient}, nil
	}
}

// Close releases the SFTP channel and the underlying SSH connection.
func (s *session) Close() {
	if s.sftp != nil {
		s.sftp.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

func (f *sessionFactory) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if f.cfg.KnownHostsKey == "" {
		f.logger.Warn("snapshot adapter host key verification disabled; configure known_hosts_key for production use")
		return ssh.InsecureIgnoreHostKey(), nil
	}

	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(f.cfg.KnownHostsKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse known host key: %w", err)
	}
	return ssh.FixedHostKey(key), nil
}

func loadSigner(path string) (ssh.Signer, error) {
	if path == "" {
		return nil, fmt.Errorf("ssh key path is not configured")
	}
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key at %s: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key: %w", err)
	}
	return signer, nil
}

// sshConnector is the real connector: it dials a fresh SSH+SFTP session per
// call and wraps it to satisfy the fileSystem interface. Dial attempts run
// through a circuit breaker so a down snapshot host fails every request
// instantly with ErrOpenState instead of paying a fresh dial timeout on
// every call once failures pile up.
type sshConnector struct {
	factory *sessionFactory
	breaker *circuit.CircuitBreaker
}

func newSSHConnector(factory *sessionFactory) *sshConnector {
	return &sshConnector{
		factory: factory,
		breaker: circuit.NewCircuitBreaker("snapshot-ssh", circuit.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuit.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (c *sshConnector) connect(ctx context.Context) (fileSystem, error) {
	var fs fileSystem
	err := c.breaker.ExecuteWithContext(ctx, func(ctx context.Context) error {
		sess, err := c.factory.open(ctx)
		if err != nil {
			return err
		}
		fs = &sftpFileSystem{session: sess}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// sftpFileSystem adapts a *sftp.Client session to the narrow fileSystem
// interface the adapter depends on.
type sftpFileSystem struct {
	session *session
}

func (f *sftpFileSystem) ReadDir(path string) ([]os.FileInfo, error) {
	return f.session.sftp.ReadDir(path)
}

func (f *sftpFileSystem) Stat(path string) (os.FileInfo, error) {
	return f.session.sftp.Stat(path)
}

func (f *sftpFileSystem) Open(path string) (io.ReadCloser, error) {
	return f.session.sftp.Open(path)
}

func (f *sftpFileSystem) Close() error {
	f.session.Close()
	return nil
}

// withDefaultPort appends :22 when the host string carries no port.
func withDefaultPort(host string) string {
	for i := len(host) - 1; i >= 0; i-- {
		if host[i] == ':' {
			return host
		}
		if host[i] == ']' {
			break
		}
	}
	return host + ":22"
}
