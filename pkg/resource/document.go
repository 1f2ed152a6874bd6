package resource

import "time"

// Document is one inventory snapshot of an account and region.
// It is assembled once per run and not modified afterwards.
type Document struct {
	Timestamp string            `json:"timestamp" yaml:"timestamp"` // ISO-8601, stamped at assembly
	Region    string            `json:"region" yaml:"region"`
	AccountID string            `json:"account_id" yaml:"account_id"`
	Resources map[Type][]Record `json:"resources" yaml:"resources"`
	Summary   map[Type]int      `json:"summary" yaml:"summary"`
}

// NewDocument assembles a document and derives the summary counts from resources.
func NewDocument(timestamp, region, accountID string, resources map[Type][]Record) Document {
	doc := Document{
		Timestamp: timestamp,
		Region:    region,
		AccountID: accountID,
		Resources: make(map[Type][]Record, len(resources)),
		Summary:   make(map[Type]int, len(resources)),
	}
	for t, records := range resources {
		if records == nil {
			records = []Record{}
		}
		doc.Resources[t] = records
		doc.Summary[t] = len(records)
	}
	return doc
}

// Records returns the records of type t and whether t is part of the document.
func (d Document) Records(t Type) ([]Record, bool) {
	records, ok := d.Resources[t]
	return records, ok
}

// Total returns the number of records across all types.
func (d Document) Total() int {
	total := 0
	for _, n := range d.Summary {
		total += n
	}
	return total
}

// CollectResult holds the outcome of collecting one resource type.
type CollectResult struct {
	Type     Type
	Region   string
	Records  []Record
	Duration time.Duration
	Error    error
}
