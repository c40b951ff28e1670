package snapshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/snapvault/browser/internal/config"
	browsererrors "github.com/snapvault/browser/pkg/errors"
	"github.com/snapvault/browser/pkg/metrics"
	"github.com/snapvault/browser/pkg/types"
	"github.com/snapvault/browser/pkg/utils"
)

// fileSystem is the minimal surface this adapter needs from an open
// connection: directory listing, stat, and a readable file handle. It
// exists so the adapter can be exercised with a fake in tests without any
// real SSH/SFTP transport.
type fileSystem interface {
	ReadDir(path string) ([]os.FileInfo, error)
	Stat(path string) (os.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Close() error
}

// connector opens one scoped fileSystem per call.
type connector interface {
	connect(ctx context.Context) (fileSystem, error)
}

// Adapter implements types.SnapshotStore over SFTP-over-SSH. Every public
// method opens its own scoped connection via connector and releases it on
// every exit path — this adapter caches no connections.
type Adapter struct {
	connector connector
	cfg       config.SnapshotConfig
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// New builds a Snapshot Adapter from the given connection settings.
func New(cfg config.SnapshotConfig, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "snapshot")
	factory, _ := newSessionFactory(cfg, logger)
	return &Adapter{connector: newSSHConnector(factory), cfg: cfg, logger: logger}
}

// SetMetrics attaches a Prometheus collector. Optional: an Adapter with no
// collector attached simply skips instrumentation.
func (a *Adapter) SetMetrics(c *metrics.Collector) {
	a.metrics = c
}

// recordError increments the snapshot adapter error counter for kind, if a
// collector is attached.
func (a *Adapter) recordError(kind string) {
	if a.metrics != nil {
		a.metrics.RecordSnapshotError(kind)
	}
}

// ListSnapshots reads the snapshot root directory, discarding hidden
// entries, and keeps only directories whose s3_root_prefix subdirectory
// exists. A transport failure here degrades to an empty set rather than
// propagating, per spec section 7's enumeration policy.
func (a *Adapter) ListSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error) {
	fs, err := a.connector.connect(ctx)
	if err != nil {
		a.logger.Warn("snapshot enumeration unavailable", "error", err)
		a.recordError("connect")
		return nil, nil
	}
	defer fs.Close()

	entries, err := fs.ReadDir(a.cfg.Dir)
	if err != nil {
		a.logger.Warn("failed to read snapshot directory", "dir", a.cfg.Dir, "error", err)
		a.recordError("readdir")
		return nil, nil
	}

	descriptors := make([]types.SnapshotDescriptor, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		verifyPath := SnapshotRoot(a.cfg.Dir, name, a.cfg.RootPrefix)
		info, statErr := fs.Stat(verifyPath)
		if statErr != nil || !info.IsDir() {
			continue
		}

		descriptors = append(descriptors, ParseName(name))
	}

	SortDescriptors(descriptors)
	return descriptors, nil
}

// StatSnapshotObject returns file info for an object within a snapshot, or
// nil if it does not exist.
func (a *Adapter) StatSnapshotObject(ctx context.Context, bucket, snapshotName, key string) (*types.FileInfo, error) {
	fs, err := a.connector.connect(ctx)
	if err != nil {
		a.recordError("connect")
		return nil, browsererrors.Wrap(browsererrors.KindSnapshotUnavailable, "failed to connect to snapshot host", err).
			WithComponent("snapshot").WithOperation("StatSnapshotObject")
	}
	defer fs.Close()

	snapshotRoot := SnapshotRoot(a.cfg.Dir, snapshotName, a.cfg.RootPrefix)
	if err := utils.ValidatePathWithinBase(snapshotRoot, path.Join(bucket, key)); err != nil {
		a.recordError("invalid_path")
		return nil, browsererrors.New(browsererrors.KindInvalidRequest, err.Error()).
			WithComponent("snapshot").WithOperation("StatSnapshotObject")
	}

	p := ObjectPath(a.cfg.Dir, snapshotName, a.cfg.RootPrefix, bucket, key)
	info, err := fs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		a.recordError("stat")
		return nil, browsererrors.Wrap(browsererrors.KindTransportFailure, fmt.Sprintf("failed to stat %s", p), err).
			WithComponent("snapshot").WithOperation("StatSnapshotObject")
	}

	return &types.FileInfo{
		Name:    path.Base(key),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// ObjectExists reports whether a non-directory entry exists at the path.
func (a *Adapter) ObjectExists(ctx context.Context, bucket, snapshotName, key string) (bool, error) {
	info, err := a.StatSnapshotObject(ctx, bucket, snapshotName, key)
	if err != nil {
		return false, err
	}
	return info != nil && !info.IsDir, nil
}

// ReadSnapshotBytes fully buffers a file's content from inside a snapshot.
func (a *Adapter) ReadSnapshotBytes(ctx context.Context, bucket, snapshotName, key string) ([]byte, error) {
	fs, err := a.connector.connect(ctx)
	if err != nil {
		a.recordError("connect")
		return nil, browsererrors.Wrap(browsererrors.KindTransportFailure, "failed to connect to snapshot host", err).
			WithComponent("snapshot").WithOperation("ReadSnapshotBytes")
	}
	defer fs.Close()

	snapshotRoot := SnapshotRoot(a.cfg.Dir, snapshotName, a.cfg.RootPrefix)
	if err := utils.ValidatePathWithinBase(snapshotRoot, path.Join(bucket, key)); err != nil {
		a.recordError("invalid_path")
		return nil, browsererrors.New(browsererrors.KindInvalidRequest, err.Error()).
			WithComponent("snapshot").WithOperation("ReadSnapshotBytes")
	}

	p := ObjectPath(a.cfg.Dir, snapshotName, a.cfg.RootPrefix, bucket, key)
	f, err := fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, browsererrors.New(browsererrors.KindNotFound, fmt.Sprintf("snapshot file not found: %s", p)).
				WithComponent("snapshot").WithOperation("ReadSnapshotBytes")
		}
		a.recordError("open")
		return nil, browsererrors.Wrap(browsererrors.KindTransportFailure, fmt.Sprintf("failed to open %s", p), err).
			WithComponent("snapshot").WithOperation("ReadSnapshotBytes")
	}
	defer f.Close()

	data := []byte{}
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		data = append(data, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			a.recordError("read")
			return nil, browsererrors.Wrap(browsererrors.KindTransportFailure, fmt.Sprintf("failed to read %s", p), err).
				WithComponent("snapshot").WithOperation("ReadSnapshotBytes")
		}
	}
	return data, nil
}

// ListSnapshotObjects lists one level under prefix within a snapshot's
// bucket, skipping hidden entries.
func (a *Adapter) ListSnapshotObjects(ctx context.Context, bucket, snapshotName, prefix string) ([]types.FileInfo, error) {
	fs, err := a.connector.connect(ctx)
	if err != nil {
		a.recordError("connect")
		return nil, browsererrors.Wrap(browsererrors.KindSnapshotUnavailable, "failed to connect to snapshot host", err).
			WithComponent("snapshot").WithOperation("ListSnapshotObjects")
	}
	defer fs.Close()

	snapshotRoot := SnapshotRoot(a.cfg.Dir, snapshotName, a.cfg.RootPrefix)
	if err := utils.ValidatePathWithinBase(snapshotRoot, path.Join(bucket, prefix)); err != nil {
		a.recordError("invalid_path")
		return nil, browsererrors.New(browsererrors.KindInvalidRequest, err.Error()).
			WithComponent("snapshot").WithOperation("ListSnapshotObjects")
	}

	basePath := snapshotRoot + "/" + bucket
	if prefix != "" {
		basePath = basePath + "/" + strings.TrimSuffix(prefix, "/")
	}

	entries, err := fs.ReadDir(basePath)
	if err != nil {
		return nil, nil
	}

	files := make([]types.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, types.FileInfo{
			Name:    entry.Name(),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
			IsDir:   entry.IsDir(),
		})
	}
	return files, nil
}

// HealthCheck satisfies types.HealthChecker by opening and immediately
// closing a scoped connection.
func (a *Adapter) HealthCheck(ctx context.Context) error {
	fs, err := a.connector.connect(ctx)
	if err != nil {
		return browsererrors.Wrap(browsererrors.KindSnapshotUnavailable, "snapshot host unreachable", err).
			WithComponent("snapshot").WithOperation("HealthCheck")
	}
	return fs.Close()
}

// ReadRemoteFile reads an arbitrary file from the snapshot host's home
// directory, outside any snapshot layout. It satisfies the remote bucket
// filter's content reader interface (internal/config.remoteContentReader):
// the filter document lives alongside the snapshots, not inside one.
func (a *Adapter) ReadRemoteFile(ctx context.Context, relativePath string) ([]byte, error) {
	fs, err := a.connector.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to snapshot host: %w", err)
	}
	defer fs.Close()

	f, err := fs.Open(relativePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", relativePath, err)
	}
	defer f.Close()

	return io.ReadAll(f)
}
