package snapshot

import (
	"regexp"
	"sort"
	"time"

	"github.com/snapvault/browser/pkg/types"
)

// namePatterns is the regex ladder from spec section 3/8: date-with-hour,
// date-only, then year-month, first match wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`.*_(\d{4}-\d{2}-\d{2})_(\d{2})`),
	regexp.MustCompile(`.*_(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`.*_(\d{4}-\d{2})`),
}

// ParseName turns a bare snapshot directory name into a SnapshotDescriptor,
// extracting a timestamp if the name matches one of the known patterns. It
// performs no I/O.
func ParseName(name string) types.SnapshotDescriptor {
	for i, pattern := range namePatterns {
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}

		var ts time.Time
		var err error
		switch i {
		case 0: // date with hour
			ts, err = time.Parse("2006-01-02_15", match[1]+"_"+match[2])
		case 1: // date only
			ts, err = time.Parse("2006-01-02", match[1])
		case 2: // year-month only
			ts, err = time.Parse("2006-01", match[1])
		}
		if err != nil {
			continue
		}
		return types.SnapshotDescriptor{Name: name, Timestamp: ts, HasTime: true}
	}

	return types.SnapshotDescriptor{Name: name}
}

// SortDescriptors orders descriptors with present timestamps descending
// (newest first); entries without a timestamp sort last, in an unspecified
// relative order among themselves.
func SortDescriptors(descriptors []types.SnapshotDescriptor) {
	sort.SliceStable(descriptors, func(i, j int) bool {
		a, b := descriptors[i], descriptors[j]
		if a.HasTime != b.HasTime {
			return a.HasTime // timed entries sort before untimed ones
		}
		if !a.HasTime {
			return false
		}
		return a.Timestamp.After(b.Timestamp)
	})
}
