/*
Package types holds the data model and narrow interfaces shared across the
object store adapter, snapshot adapter, and version mapper.

# Core interfaces

ObjectStore abstracts the live S3-compatible gateway: bucket listing,
delimited object listing, HeadObject, and whole-object reads. SnapshotStore
abstracts the historical filesystem exposed over SFTP: snapshot enumeration,
per-object stat, existence checks, whole-file reads, and one-level listing
within a snapshot. Both are read-only — this system never writes to either
side.

HealthChecker is the common shape every adapter exposes so the HTTP surface
can report component health without knowing which adapter it's talking to.

# Data structures

ObjectMetadata, BucketInfo, Folder, and ObjectListing describe the live
object store's shape. FileInfo and SnapshotDescriptor describe the
historical filesystem's shape. VersionRecord is the reconstructed output of
the version mapper: one deduplicated version in an object's timeline, along
with the Signature type used to detect that two probes represent the same
underlying version.
*/
package types
