package snapshot

import "testing"

func TestObjectPath(t *testing.T) {
	tests := []struct {
		name         string
		base         string
		snapshotName string
		s3RootPrefix string
		bucket       string
		key          string
		want         string
	}{
		{
			name:         "with s3 root prefix and nested key",
			base:         ".zfs",
			snapshotName: "daily_2025-12-01",
			s3RootPrefix: "s3root",
			bucket:       "my-bucket",
			key:          "folder/file.txt",
			want:         ".zfs/daily_2025-12-01/s3root/my-bucket/folder/file.txt",
		},
		{
			name:         "hourly snapshot",
			base:         ".zfs",
			snapshotName: "hourly_2025-12-01_10",
			s3RootPrefix: "s3root",
			bucket:       "bucket",
			key:          "file.txt",
			want:         ".zfs/hourly_2025-12-01_10/s3root/bucket/file.txt",
		},
		{
			name:         "empty s3 root prefix elides it",
			base:         ".zfs",
			snapshotName: "snap1",
			s3RootPrefix: "",
			bucket:       "b",
			key:          "k",
			want:         ".zfs/snap1/b/k",
		},
		{
			name:         "dot s3 root prefix elides it",
			base:         ".zfs",
			snapshotName: "snap1",
			s3RootPrefix: ".",
			bucket:       "b",
			key:          "k",
			want:         ".zfs/snap1/b/k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ObjectPath(tt.base, tt.snapshotName, tt.s3RootPrefix, tt.bucket, tt.key)
			if got != tt.want {
				t.Errorf("ObjectPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnapshotRoot(t *testing.T) {
	if got := SnapshotRoot(".zfs", "daily_2025-12-01", "s3root"); got != ".zfs/daily_2025-12-01/s3root" {
		t.Errorf("SnapshotRoot() = %q", got)
	}
	if got := SnapshotRoot(".zfs", "daily_2025-12-01", ""); got != ".zfs/daily_2025-12-01" {
		t.Errorf("SnapshotRoot() with empty prefix = %q", got)
	}
}
