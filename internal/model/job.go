package model

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PostedDateLayout is the canonical posted-date format (ISO 8601 date).
const PostedDateLayout = "2006-01-02"

// RemoteStatus describes whether a job can be done remotely.
type RemoteStatus string

const (
	RemoteYes     RemoteStatus = "Yes"
	RemoteNo      RemoteStatus = "No"
	RemoteHybrid  RemoteStatus = "Hybrid"
	RemoteUnknown RemoteStatus = "Unknown"
)

// Valid reports whether r is one of the known remote statuses.
func (r RemoteStatus) Valid() bool {
	switch r {
	case RemoteYes, RemoteNo, RemoteHybrid, RemoteUnknown:
		return true
	}
	return false
}

// Unified representation of a job posting from any source.
type JobRecord struct {
	CompanyName        string
	JobTitle           string
	Location           string
	JobLink            string // unique within a source
	Description        string
	EmploymentType     string
	Department         string
	PostedDate         string // YYYY-MM-DD or empty
	CompanyDescription string
	Remote             RemoteStatus
	Label              string // source label from the registry
	ATS                string // adapter name
}

// Key is the natural key used for deduplication and change detection.
type Key struct {
	JobLink     string `json:"job_link"`
	CompanyName string `json:"company_name"`
}

func (k Key) String() string {
	return k.CompanyName + " | " + k.JobLink
}

// Less orders keys by company, then link.
func (k Key) Less(o Key) bool {
	if k.CompanyName != o.CompanyName {
		return k.CompanyName < o.CompanyName
	}
	return k.JobLink < o.JobLink
}

// Key returns the record's natural key.
func (j JobRecord) Key() Key {
	return Key{JobLink: j.JobLink, CompanyName: j.CompanyName}
}

// Validate checks structural presence only: the key fields are set, the
// remote status is known and the posted date, if any, parses.
func (j JobRecord) Validate() error {
	if strings.TrimSpace(j.JobLink) == "" {
		return fmt.Errorf("job %q: missing job link", j.JobTitle)
	}
	if strings.TrimSpace(j.CompanyName) == "" {
		return fmt.Errorf("job %s: missing company name", j.JobLink)
	}
	if !j.Remote.Valid() {
		return fmt.Errorf("job %s: invalid remote status %q", j.JobLink, j.Remote)
	}
	if j.PostedDate != "" {
		if _, err := time.Parse(PostedDateLayout, j.PostedDate); err != nil {
			return fmt.Errorf("job %s: invalid posted date %q", j.JobLink, j.PostedDate)
		}
	}
	return nil
}

// SourceConfig is one entry of the source registry. It is immutable for the
// duration of a run.
type SourceConfig struct {
	ID          string
	Name        string
	Description string
	URL         string
	Type        string // source-type label, e.g. "greenhouse"
	Enabled     bool
}

// Fetcher produces normalized job records for one source.
type Fetcher interface {
	FetchJobs(ctx context.Context, src SourceConfig) ([]JobRecord, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, src SourceConfig) ([]JobRecord, error)

func (f FetcherFunc) FetchJobs(ctx context.Context, src SourceConfig) ([]JobRecord, error) {
	return f(ctx, src)
}
