package config

import (
	"context"
	"log/slog"

	"gopkg.in/yaml.v2"
)

// defaultHiddenFolders are always hidden regardless of what the remote
// document says, matching the upstream deployment's fixed exclusions.
var defaultHiddenFolders = []string{".ssh", ".zfs", ".config"}

// RemoteFilter is the bucket visibility filter loaded from a YAML document
// stored alongside the snapshots themselves. It is a non-core external
// collaborator: thin by design, loaded once and cached.
type RemoteFilter struct {
	ExposedFolders []string
	HiddenFolders  []string
	loaded         bool
}

// NewRemoteFilter returns a filter seeded with the default hidden folders
// and nothing exposed (meaning: show everything not hidden).
func NewRemoteFilter() *RemoteFilter {
	hidden := make([]string, len(defaultHiddenFolders))
	copy(hidden, defaultHiddenFolders)
	return &RemoteFilter{HiddenFolders: hidden}
}

type remoteDocument struct {
	ExposedFolders []string `yaml:"exposed_folders"`
	HiddenFolders  []string `yaml:"hidden_folders"`
}

// LoadYAML parses a remote config document, extending (never replacing) the
// default hidden-folder set. Malformed YAML is logged and ignored rather
// than propagated, matching the original's "don't block browsing on a bad
// sidecar file" behavior.
func (f *RemoteFilter) LoadYAML(content []byte) {
	var doc remoteDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		slog.Warn("failed to parse remote config YAML", "error", err)
		f.loaded = true
		return
	}

	if len(doc.ExposedFolders) > 0 {
		f.ExposedFolders = doc.ExposedFolders
	}

	for _, name := range doc.HiddenFolders {
		if !contains(f.HiddenFolders, name) {
			f.HiddenFolders = append(f.HiddenFolders, name)
		}
	}

	f.loaded = true
	slog.Info("remote config loaded", "exposed", f.ExposedFolders, "hidden", f.HiddenFolders)
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// Allows reports whether bucket should be shown given the current filter.
func (f *RemoteFilter) Allows(bucket string) bool {
	if contains(f.HiddenFolders, bucket) {
		return false
	}
	if len(f.ExposedFolders) > 0 {
		return contains(f.ExposedFolders, bucket)
	}
	return true
}

// FilterBuckets returns the subset of buckets this filter allows, preserving order.
func (f *RemoteFilter) FilterBuckets(buckets []string) []string {
	filtered := make([]string, 0, len(buckets))
	for _, b := range buckets {
		if f.Allows(b) {
			filtered = append(filtered, b)
		}
	}
	return filtered
}

// remoteContentReader is the minimal snapshot-adapter surface this loader
// needs: reading one live file's bytes from the root snapshot source.
type remoteContentReader interface {
	ReadRemoteFile(ctx context.Context, path string) ([]byte, error)
}

// LoadRemoteFilter fetches and parses the remote config document over the
// given reader. A missing or unreadable document is not an error: the
// filter is simply left at its defaults, matching the original's
// fail-open behavior for an optional sidecar file.
func LoadRemoteFilter(ctx context.Context, reader remoteContentReader, path string) *RemoteFilter {
	filter := NewRemoteFilter()

	content, err := reader.ReadRemoteFile(ctx, path)
	if err != nil {
		slog.Info("remote config not found or unreadable", "path", path, "error", err)
		filter.loaded = true
		return filter
	}

	filter.LoadYAML(content)
	return filter
}
