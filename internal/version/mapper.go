// Package version implements the Version Mapper: the core algorithm that
// correlates a live object's current state with its historical states
// across every snapshot to reconstruct a deduplicated version timeline.
package version

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	browsererrors "github.com/snapvault/browser/pkg/errors"
	"github.com/snapvault/browser/pkg/metrics"
	"github.com/snapvault/browser/pkg/types"
)

// snapshotFanOutWidth bounds the number of concurrent snapshot stat probes.
// This is a hard requirement, not a tuning knob: it bounds concurrent SSH
// sessions regardless of how many snapshots exist.
const snapshotFanOutWidth = 10

// Mapper reconstructs version timelines from a live object store and a
// historical snapshot store. It holds no per-request state between calls.
type Mapper struct {
	objects   types.ObjectStore
	snapshots types.SnapshotStore
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// New builds a Version Mapper over the given adapters.
func New(objects types.ObjectStore, snapshots types.SnapshotStore, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{objects: objects, snapshots: snapshots, logger: logger.With("component", "version")}
}

// SetMetrics attaches a Prometheus collector. Optional: a Mapper with no
// collector attached simply skips instrumentation.
func (m *Mapper) SetMetrics(c *metrics.Collector) {
	m.metrics = c
}

// provisionalRecord is one snapshot probe's result before dedup and id
// assignment.
type provisionalRecord struct {
	snapshotName string
	size         int64
	modTime      time.Time
}

// ListObjectVersions runs the full listing algorithm for (bucket, key):
// concurrent live HEAD + bounded snapshot fan-out, chronological sort,
// oldest-wins dedup, live-subsumes-snapshot suppression, sequential id
// assignment oldest-first, reversed to newest-first for the caller.
func (m *Mapper) ListObjectVersions(ctx context.Context, bucket, key string) ([]types.VersionRecord, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var live *types.ObjectMetadata
	g.Go(func() error {
		meta, err := m.objects.HeadObject(gctx, bucket, key)
		if err != nil {
			if browsererrors.IsKind(err, browsererrors.KindNotFound) {
				return nil
			}
			m.logger.Warn("live head failed, omitting current version", "bucket", bucket, "key", key, "error", err)
			return nil
		}
		live = meta
		return nil
	})

	var (
		provisionals []provisionalRecord
		provMu       sync.Mutex
		probed       int
	)
	g.Go(func() error {
		descriptors, err := m.snapshots.ListSnapshots(gctx)
		if err != nil {
			m.logger.Warn("snapshot enumeration failed, treating as empty", "error", err)
			return nil
		}
		probed = len(descriptors)

		sem := semaphore.NewWeighted(snapshotFanOutWidth)
		fanOut, fctx := errgroup.WithContext(gctx)
		for _, descriptor := range descriptors {
			descriptor := descriptor
			if err := sem.Acquire(fctx, 1); err != nil {
				break
			}
			fanOut.Go(func() error {
				defer sem.Release(1)

				info, statErr := m.snapshots.StatSnapshotObject(fctx, bucket, descriptor.Name, key)
				if statErr != nil {
					m.logger.Debug("snapshot stat failed, no record contributed", "snapshot", descriptor.Name, "error", statErr)
					return nil
				}
				if info == nil || info.IsDir {
					return nil
				}

				provMu.Lock()
				provisionals = append(provisionals, provisionalRecord{
					snapshotName: descriptor.Name,
					size:         info.Size,
					modTime:      info.ModTime,
				})
				provMu.Unlock()
				return nil
			})
		}
		return fanOut.Wait()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := assembleTimeline(live, provisionals)
	if m.metrics != nil {
		snapshotRecords := len(records)
		if live != nil {
			snapshotRecords--
		}
		dropped := len(provisionals) - snapshotRecords
		if dropped < 0 {
			dropped = 0
		}
		m.metrics.ObserveListing(bucket, time.Since(start).Seconds(), probed, len(records), dropped)
	}
	return records, nil
}

// assembleTimeline implements steps 4-8 of the listing algorithm. It is
// pure: no adapter calls, which makes the dedup/ordering contract directly
// testable by feeding it fixed live/provisional inputs.
func assembleTimeline(live *types.ObjectMetadata, provisionals []provisionalRecord) []types.VersionRecord {
	sort.SliceStable(provisionals, func(i, j int) bool {
		a, b := provisionals[i], provisionals[j]
		aZero, bZero := a.modTime.IsZero(), b.modTime.IsZero()
		if aZero != bZero {
			return aZero
		}
		return a.modTime.Before(b.modTime)
	})

	var liveSig types.Signature
	hasLive := live != nil
	if hasLive {
		liveSig = types.SignatureOf(live.Size, live.LastModified)
	}

	seen := make(map[types.Signature]bool, len(provisionals))
	ordered := make([]types.VersionRecord, 0, len(provisionals)+1)
	for _, p := range provisionals {
		sig := types.SignatureOf(p.size, p.modTime)
		if seen[sig] {
			continue
		}
		if hasLive && sig == liveSig {
			continue
		}
		seen[sig] = true
		ordered = append(ordered, types.VersionRecord{
			Size:         p.size,
			LastModified: p.modTime,
			Source:       types.SourceSnapshot,
			SourceLabel:  types.SourceSnapshot.String(),
			SnapshotName: p.snapshotName,
		})
	}

	if hasLive {
		ordered = append(ordered, types.VersionRecord{
			Size:         live.Size,
			LastModified: live.LastModified,
			ETag:         live.ETag,
			Source:       types.SourceLive,
			SourceLabel:  types.SourceLive.String(),
			IsCurrent:    true,
		})
	}

	n := len(ordered)
	for i := range ordered {
		id := fmt.Sprintf("v%d", i+1)
		if ordered[i].IsCurrent {
			id = fmt.Sprintf("%s (current)", id)
		}
		ordered[i].ID = id
	}

	reversed := make([]types.VersionRecord, n)
	for i, r := range ordered {
		reversed[n-1-i] = r
	}
	return reversed
}

// GetVersionContent dispatches to the live store or a named snapshot
// depending on versionID's form, per the "current" / *(current) grammar.
func (m *Mapper) GetVersionContent(ctx context.Context, bucket, key, versionID string) ([]byte, *types.VersionRecord, error) {
	var (
		data   []byte
		record *types.VersionRecord
		err    error
	)
	if isCurrentVersionID(versionID) {
		data, record, err = m.getCurrentContent(ctx, bucket, key)
	} else {
		data, record, err = m.getSnapshotContent(ctx, bucket, key, versionID)
	}
	if err == nil && m.metrics != nil {
		m.metrics.RecordContentFetch(record.SourceLabel)
	}
	return data, record, err
}

func (m *Mapper) getCurrentContent(ctx context.Context, bucket, key string) ([]byte, *types.VersionRecord, error) {
	data, err := m.objects.GetObjectBytes(ctx, bucket, key)
	if err != nil {
		return nil, nil, err
	}
	meta, err := m.objects.HeadObject(ctx, bucket, key)
	if err != nil {
		return nil, nil, err
	}
	if meta == nil {
		return nil, nil, browsererrors.New(browsererrors.KindNotFound, fmt.Sprintf("object not found: %s/%s", bucket, key)).
			WithComponent("version").WithOperation("GetVersionContent")
	}

	return data, &types.VersionRecord{
		ID:           "current",
		Size:         meta.Size,
		LastModified: meta.LastModified,
		ETag:         meta.ETag,
		Source:       types.SourceLive,
		SourceLabel:  types.SourceLive.String(),
		IsCurrent:    true,
	}, nil
}

func (m *Mapper) getSnapshotContent(ctx context.Context, bucket, key, snapshotName string) ([]byte, *types.VersionRecord, error) {
	data, err := m.snapshots.ReadSnapshotBytes(ctx, bucket, snapshotName, key)
	if err != nil {
		return nil, nil, err
	}
	info, err := m.snapshots.StatSnapshotObject(ctx, bucket, snapshotName, key)
	if err != nil {
		return nil, nil, err
	}
	if info == nil {
		return nil, nil, browsererrors.New(browsererrors.KindNotFound, fmt.Sprintf("snapshot object not found: %s/%s in %s", bucket, key, snapshotName)).
			WithComponent("version").WithOperation("GetVersionContent")
	}

	return data, &types.VersionRecord{
		ID:           snapshotName,
		Size:         info.Size,
		LastModified: info.ModTime,
		Source:       types.SourceSnapshot,
		SourceLabel:  types.SourceSnapshot.String(),
		SnapshotName: snapshotName,
	}, nil
}

// isCurrentVersionID accepts the literal "current" or any decorated form
// ending in "(current)", per the wire grammar.
func isCurrentVersionID(versionID string) bool {
	return versionID == "current" || strings.HasSuffix(versionID, "(current)")
}

// EnumerateSnapshots is a pass-through to the snapshot adapter, exposed
// here so the HTTP surface depends only on the mapper for all three
// consumer operations.
func (m *Mapper) EnumerateSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error) {
	return m.snapshots.ListSnapshots(ctx)
}
