// Package resource defines the normalized inventory model for stocktake.
package resource

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NotAvailable is the value projected for well-known tags that are missing.
const NotAvailable = "N/A"

// Type identifies a collected resource family.
type Type string

// Resource types, in collection order.
const (
	TypeCompute  Type = "compute"
	TypeStorage  Type = "storage"
	TypeDatabase Type = "database"
	TypeFunction Type = "function"
)

// Types returns the fixed enumeration of resource types in collection order.
func Types() []Type {
	return []Type{TypeCompute, TypeStorage, TypeDatabase, TypeFunction}
}

var typeAliases = map[string]Type{
	"compute":          TypeCompute,
	"ec2":              TypeCompute,
	"ec2_instances":    TypeCompute,
	"storage":          TypeStorage,
	"s3":               TypeStorage,
	"s3_buckets":       TypeStorage,
	"database":         TypeDatabase,
	"rds":              TypeDatabase,
	"rds_instances":    TypeDatabase,
	"function":         TypeFunction,
	"lambda":           TypeFunction,
	"lambda_functions": TypeFunction,
}

// ParseType resolves a type name or one of its service aliases ("ec2", "s3_buckets", ...).
func ParseType(s string) (Type, bool) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// String returns the type name.
func (t Type) String() string {
	return string(t)
}

// TagSet is a flat tag key to tag value mapping.
type TagSet map[string]string

// Get returns the tag value for key, or def when the tag is absent.
func (t TagSet) Get(key, def string) string {
	if v, ok := t[key]; ok {
		return v
	}
	return def
}

// String renders the tags as a compact JSON object with sorted keys.
func (t TagSet) String() string {
	if len(t) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string(t)); err != nil {
		return "{}"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Record is one normalized resource. Each resource type has its own variant
// with a fixed field set; Fields exposes the flat view used for tabular output.
type Record interface {
	// Type returns the resource family of the record.
	Type() Type

	// ID returns the provider identifier (instance id, bucket name, ...).
	ID() string

	// TagSet returns the full tag mapping.
	TagSet() TagSet

	// Fields returns the record as field name to value. Optional attributes
	// that were not reported are left out.
	Fields() map[string]any
}

// Attribution carries the tags shared by every record variant and the
// well-known tags projected from them.
type Attribution struct {
	Tags        TagSet `json:"Tags" yaml:"Tags"`
	Environment string `json:"Environment" yaml:"Environment"`
	Owner       string `json:"Owner" yaml:"Owner"`
}

// NewAttribution projects Environment and Owner out of tags.
func NewAttribution(tags TagSet) Attribution {
	if tags == nil {
		tags = TagSet{}
	}
	return Attribution{
		Tags:        tags,
		Environment: tags.Get("Environment", NotAvailable),
		Owner:       tags.Get("Owner", NotAvailable),
	}
}

// TagSet returns the record tags.
func (a Attribution) TagSet() TagSet {
	return a.Tags
}

func (a Attribution) putFields(m map[string]any) map[string]any {
	m["Tags"] = a.Tags
	m["Environment"] = a.Environment
	m["Owner"] = a.Owner
	return m
}
