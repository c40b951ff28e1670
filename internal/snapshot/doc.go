/*
Package snapshot implements the Snapshot Adapter and the Snapshot
Directory: read-only access to historical filesystem state exposed over
SFTP, and the pure logic that turns a bag of snapshot names into an ordered,
timestamped list.

Every adapter operation opens its own SSH connection and SFTP channel and
releases both before returning, successfully or not — there is no
connection pool here, only a bounded fan-out imposed by the caller (the
version mapper). Path construction (path.go) and name parsing/ordering
(directory.go) are pure and hold no transport dependency, by design: they
are the two pieces of this package a reviewer should be able to verify
without a snapshot host to test against.
*/
package snapshot
