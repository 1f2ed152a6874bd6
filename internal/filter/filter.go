// Package filter decides which resource types are collected and which records are kept.
package filter

import (
	"github.com/yairfalse/stocktake/pkg/resource"
)

// Filter controls which resource types to collect and which records to include.
type Filter struct {
	excludeTypes map[resource.Type]bool
	includeTags  map[string]string
	excludeTags  map[string]string
}

// New creates a new Filter. Type names accept the same aliases as resource.ParseType;
// unrecognized names are ignored.
func New(excludeTypes []string, includeTags, excludeTags map[string]string) *Filter {
	excludeMap := make(map[resource.Type]bool)
	for _, name := range excludeTypes {
		if t, ok := resource.ParseType(name); ok {
			excludeMap[t] = true
		}
	}

	return &Filter{
		excludeTypes: excludeMap,
		includeTags:  includeTags,
		excludeTags:  excludeTags,
	}
}

// ShouldCollectType returns true if the given resource type should be collected.
func (f *Filter) ShouldCollectType(t resource.Type) bool {
	return !f.excludeTypes[t]
}

// ShouldInclude returns true if the record passes tag filters.
func (f *Filter) ShouldInclude(r resource.Record) bool {
	tags := r.TagSet()

	// Include tags: ALL must match
	for k, v := range f.includeTags {
		if got, ok := tags[k]; !ok || got != v {
			return false
		}
	}

	// Exclude tags: ANY match excludes
	for k, v := range f.excludeTags {
		if got, ok := tags[k]; ok && got == v {
			return false
		}
	}

	return true
}

// Apply returns only records that pass the filter.
func (f *Filter) Apply(records []resource.Record) []resource.Record {
	if len(f.includeTags) == 0 && len(f.excludeTags) == 0 {
		return records
	}

	filtered := make([]resource.Record, 0, len(records))
	for _, r := range records {
		if f.ShouldInclude(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// IsEmpty returns true if no filters are configured.
func (f *Filter) IsEmpty() bool {
	return len(f.excludeTypes) == 0 && len(f.includeTags) == 0 && len(f.excludeTags) == 0
}
