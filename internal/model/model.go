// Package model holds the CVE catalog records and the page envelope returned
// by the listing API. Plain data shapes only, no behavior.
package model

import "time"

// VulnerabilityRecord is a single CVE entry as stored by the ingestion process.
// This service never writes records; it only lists them.
type VulnerabilityRecord struct {
	ID               string    `json:"identifier"`
	SourceIdentifier string    `json:"sourceIdentifier"`
	Published        time.Time `json:"published"`
	LastModified     time.Time `json:"lastModified"`
	VulnStatus       string    `json:"vulnStatus"` // Analyzed, Modified, Awaiting Analysis, ...
}

// RecordPage is the listing payload. Docs and TotalDocs are the contract; the remaining
// fields are derived from them and the request so clients can skip the arithmetic.
type RecordPage struct {
	Docs        []VulnerabilityRecord `json:"docs"`
	TotalDocs   int                   `json:"totalDocs"`
	Limit       int                   `json:"limit"`
	Page        int                   `json:"page"`
	TotalPages  int                   `json:"totalPages"`
	HasPrevPage bool                  `json:"hasPrevPage"`
	HasNextPage bool                  `json:"hasNextPage"`
}
