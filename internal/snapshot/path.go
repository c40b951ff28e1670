package snapshot

import "strings"

// SnapshotRoot returns the path to a snapshot's S3 data root:
// <snapshotRoot>/<snapshot>[/<s3RootPrefix>]. An s3RootPrefix of "" or "."
// means the snapshot directory itself is the data root.
func SnapshotRoot(base, snapshotName, s3RootPrefix string) string {
	root := join(base, snapshotName)
	if s3RootPrefix == "" || s3RootPrefix == "." {
		return root
	}
	return join(root, s3RootPrefix)
}

// ObjectPath is the single source of truth for snapshot layout:
// <snapshot_root>/<snapshot>/<s3_root_prefix>/<bucket>/<key>, with
// <s3_root_prefix>/ elided when the prefix is empty or ".". It is a pure
// function of its five inputs and touches no transport.
func ObjectPath(base, snapshotName, s3RootPrefix, bucket, key string) string {
	return join(join(SnapshotRoot(base, snapshotName, s3RootPrefix), bucket), key)
}

// join concatenates POSIX path segments with exactly one separator, trimming
// any existing leading/trailing slashes off each segment first.
func join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
