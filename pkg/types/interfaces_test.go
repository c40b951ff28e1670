package types

import (
	"context"
	"testing"
	"time"
)

// TestInterfaces verifies that the package's interfaces are satisfied by
// minimal fakes, catching accidental signature drift at compile time.
func TestInterfaces(t *testing.T) {
	var (
		_ ObjectStore   = (*fakeObjectStore)(nil)
		_ SnapshotStore = (*fakeSnapshotStore)(nil)
		_ HealthChecker = (*fakeHealthChecker)(nil)
	)
}

type fakeObjectStore struct{}

func (f *fakeObjectStore) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	return nil, nil
}

func (f *fakeObjectStore) ListObjects(ctx context.Context, bucket, prefix, delimiter string, maxKeys int32) (*ObjectListing, error) {
	return nil, nil
}

func (f *fakeObjectStore) HeadObject(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	return nil, nil
}

func (f *fakeObjectStore) GetObjectBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	return nil, nil
}

type fakeSnapshotStore struct{}

func (f *fakeSnapshotStore) ListSnapshots(ctx context.Context) ([]SnapshotDescriptor, error) {
	return nil, nil
}

func (f *fakeSnapshotStore) StatSnapshotObject(ctx context.Context, bucket, snapshot, key string) (*FileInfo, error) {
	return nil, nil
}

func (f *fakeSnapshotStore) ObjectExists(ctx context.Context, bucket, snapshot, key string) (bool, error) {
	return false, nil
}

func (f *fakeSnapshotStore) ReadSnapshotBytes(ctx context.Context, bucket, snapshot, key string) ([]byte, error) {
	return nil, nil
}

func (f *fakeSnapshotStore) ListSnapshotObjects(ctx context.Context, bucket, snapshot, prefix string) ([]FileInfo, error) {
	return nil, nil
}

type fakeHealthChecker struct{}

func (f *fakeHealthChecker) HealthCheck(ctx context.Context) error {
	return nil
}

func TestSignatureOf_TruncatesToSecond(t *testing.T) {
	withNanos := time.Date(2025, 6, 1, 12, 0, 0, 500_000_000, time.UTC)
	withoutNanos := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if SignatureOf(10, withNanos) != SignatureOf(10, withoutNanos) {
		t.Fatal("expected sub-second precision to be truncated away")
	}
}

func TestVersionSource_String(t *testing.T) {
	if SourceLive.String() != "live" {
		t.Fatalf("expected \"live\", got %q", SourceLive.String())
	}
	if SourceSnapshot.String() != "snapshot" {
		t.Fatalf("expected \"snapshot\", got %q", SourceSnapshot.String())
	}
}
