package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/snapvault/browser/internal/config"
	"github.com/snapvault/browser/pkg/metrics"
)

type fakeFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() os.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return f.modTime }
func (f fakeFileInfo) IsDir() bool        { return f.isDir }
func (f fakeFileInfo) Sys() interface{}   { return nil }

type fakeFS struct {
	dirs   map[string][]os.FileInfo
	stats  map[string]os.FileInfo
	files  map[string][]byte
	closed bool
}

func (f *fakeFS) ReadDir(path string) ([]os.FileInfo, error) {
	entries, ok := f.dirs[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return entries, nil
}

func (f *fakeFS) Stat(path string) (os.FileInfo, error) {
	info, ok := f.stats[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return info, nil
}

func (f *fakeFS) Open(path string) (io.ReadCloser, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeFS) Close() error {
	f.closed = true
	return nil
}

type fakeConnector struct {
	fs  *fakeFS
	err error
}

func (c *fakeConnector) connect(ctx context.Context) (fileSystem, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.fs, nil
}

func testAdapter(fs *fakeFS, connErr error) *Adapter {
	return &Adapter{
		connector: &fakeConnector{fs: fs, err: connErr},
		cfg:       config.SnapshotConfig{Dir: ".zfs", RootPrefix: "s3root"},
	}
}

func TestListSnapshots_FiltersHiddenAndUnverified(t *testing.T) {
	fs := &fakeFS{
		dirs: map[string][]os.FileInfo{
			".zfs": {
				fakeFileInfo{name: ".hidden", isDir: true},
				fakeFileInfo{name: "daily_2025-12-01", isDir: true},
				fakeFileInfo{name: "broken_snapshot", isDir: true},
			},
		},
		stats: map[string]os.FileInfo{
			".zfs/daily_2025-12-01/s3root": fakeFileInfo{name: "s3root", isDir: true},
			// broken_snapshot/s3root deliberately missing from stats
		},
	}

	adapter := testAdapter(fs, nil)
	descriptors, err := adapter.ListSnapshots(context.Background())
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(descriptors) != 1 {
		t.Fatalf("expected 1 verified snapshot, got %d: %v", len(descriptors), descriptors)
	}
	if descriptors[0].Name != "daily_2025-12-01" {
		t.Errorf("expected daily_2025-12-01, got %s", descriptors[0].Name)
	}
	if !fs.closed {
		t.Error("expected the scoped connection to be closed")
	}
}

func TestListSnapshots_ConnectorFailureDegradesToEmpty(t *testing.T) {
	adapter := testAdapter(nil, errors.New("host unreachable"))

	descriptors, err := adapter.ListSnapshots(context.Background())
	if err != nil {
		t.Fatalf("expected no error on transport failure, got %v", err)
	}
	if descriptors != nil {
		t.Errorf("expected nil/empty descriptors, got %v", descriptors)
	}
}

func TestStatSnapshotObject_NotFoundReturnsNilNil(t *testing.T) {
	fs := &fakeFS{stats: map[string]os.FileInfo{}}
	adapter := testAdapter(fs, nil)

	info, err := adapter.StatSnapshotObject(context.Background(), "bucket", "daily_2025-12-01", "missing.txt")
	if err != nil {
		t.Fatalf("StatSnapshotObject() error = %v", err)
	}
	if info != nil {
		t.Errorf("expected nil FileInfo, got %v", info)
	}
}

func TestStatSnapshotObject_Found(t *testing.T) {
	path := ObjectPath(".zfs", "daily_2025-12-01", "s3root", "bucket", "file.txt")
	modTime := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	fs := &fakeFS{stats: map[string]os.FileInfo{
		path: fakeFileInfo{name: "file.txt", size: 42, modTime: modTime},
	}}
	adapter := testAdapter(fs, nil)

	info, err := adapter.StatSnapshotObject(context.Background(), "bucket", "daily_2025-12-01", "file.txt")
	if err != nil {
		t.Fatalf("StatSnapshotObject() error = %v", err)
	}
	if info == nil || info.Size != 42 {
		t.Fatalf("expected size 42, got %v", info)
	}
}

func TestObjectExists_TrueOnlyForNonDirectory(t *testing.T) {
	filePath := ObjectPath(".zfs", "snap", "s3root", "b", "f.txt")
	dirPath := ObjectPath(".zfs", "snap", "s3root", "b", "subdir")
	fs := &fakeFS{stats: map[string]os.FileInfo{
		filePath: fakeFileInfo{name: "f.txt"},
		dirPath:  fakeFileInfo{name: "subdir", isDir: true},
	}}
	adapter := testAdapter(fs, nil)

	exists, err := adapter.ObjectExists(context.Background(), "b", "snap", "f.txt")
	if err != nil || !exists {
		t.Errorf("expected file to exist, got exists=%v err=%v", exists, err)
	}

	exists, err = adapter.ObjectExists(context.Background(), "b", "snap", "subdir")
	if err != nil || exists {
		t.Errorf("expected directory to not count as existing object, got exists=%v err=%v", exists, err)
	}
}

func TestReadSnapshotBytes(t *testing.T) {
	path := ObjectPath(".zfs", "snap", "s3root", "b", "f.txt")
	fs := &fakeFS{files: map[string][]byte{path: []byte("hello world")}}
	adapter := testAdapter(fs, nil)

	data, err := adapter.ReadSnapshotBytes(context.Background(), "b", "snap", "f.txt")
	if err != nil {
		t.Fatalf("ReadSnapshotBytes() error = %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("got %q", data)
	}
}

func TestListSnapshotObjects_SkipsHidden(t *testing.T) {
	base := SnapshotRoot(".zfs", "snap", "s3root") + "/bucket"
	fs := &fakeFS{dirs: map[string][]os.FileInfo{
		base: {
			fakeFileInfo{name: ".DS_Store"},
			fakeFileInfo{name: "a.txt", size: 1},
			fakeFileInfo{name: "b.txt", size: 2},
		},
	}}
	adapter := testAdapter(fs, nil)

	files, err := adapter.ListSnapshotObjects(context.Background(), "bucket", "snap", "")
	if err != nil {
		t.Fatalf("ListSnapshotObjects() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 visible files, got %d", len(files))
	}
}

func TestRecordError_IncrementsAttachedCollector(t *testing.T) {
	adapter := testAdapter(&fakeFS{}, errors.New("connection refused"))
	collector := metrics.New("test_snapshot_adapter")
	adapter.SetMetrics(collector)

	if _, err := adapter.StatSnapshotObject(context.Background(), "b", "snap", "f.txt"); err == nil {
		t.Fatal("expected StatSnapshotObject to fail when connect fails")
	}

	const metricName = "test_snapshot_adapter_snapshot_adapter_errors_total"
	if got, err := testutil.GatherAndCount(collector.Registry(), metricName); err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	} else if got != 1 {
		t.Errorf("expected 1 sample recorded for %s, got %d", metricName, got)
	}
}

func TestRecordError_NoCollectorAttached(t *testing.T) {
	adapter := testAdapter(&fakeFS{}, errors.New("connection refused"))

	if _, err := adapter.StatSnapshotObject(context.Background(), "b", "snap", "f.txt"); err == nil {
		t.Fatal("expected StatSnapshotObject to fail when connect fails")
	}
}
