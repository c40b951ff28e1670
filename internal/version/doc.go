/*
Package version implements the hardest part of this system: correlating a
live object's current state with every historical snapshot to produce a
deduplicated, chronologically ordered version timeline.

The listing algorithm (mapper.go) runs the live HEAD and the snapshot
fan-out concurrently via golang.org/x/sync/errgroup, bounds the per-snapshot
stat fan-out to 10 concurrent probes via golang.org/x/sync/semaphore, and
then hands the collected results to assembleTimeline — a pure function with
no adapter dependency, so the dedup/ordering contract in the specification
is directly testable without any transport.
*/
package version
