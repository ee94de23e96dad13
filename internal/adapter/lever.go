package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/jobsweep/internal/model"
)

const (
	leverBaseURL   = "https://api.lever.co/v0/postings"
	leverEUBaseURL = "https://api.eu.lever.co/v0/postings"
)

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	Description      string          `json:"description"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	client *http.Client
}

// NewLeverAdapter creates a new adapter for Lever boards.
func NewLeverAdapter(client *http.Client) *LeverAdapter {
	return &LeverAdapter{client: client}
}

// FetchJobs retrieves all jobs from the source's Lever board and normalizes
// them into job records. Boards hosted on the EU instance are detected from
// the source URL.
func (a *LeverAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	slug, err := boardSlug(src.URL, "postings")
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", src.ID, err)
	}
	base := leverBaseURL
	if strings.Contains(strings.ToLower(src.URL), "eu.lever.co") {
		base = leverEUBaseURL
	}
	url := fmt.Sprintf("%s/%s?mode=json", base, slug)

	var leverJobs []leverJob
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, &leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", slug, err)
	}

	jobs := make([]model.JobRecord, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Determine location: prefer allLocations if available, fallback to location
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		job := newRecord(src, "Lever")
		job.JobTitle = lj.Text
		job.Location = location
		job.JobLink = lj.HostedURL
		job.Description = lj.DescriptionPlain
		if job.Description == "" {
			job.Description = extractText(lj.Description)
		}
		job.EmploymentType = lj.Categories.Commitment
		job.Department = lj.Categories.Department
		if job.Department == "" {
			job.Department = lj.Categories.Team
		}
		job.PostedDate = unixMillisDate(lj.CreatedAt)
		job.Remote = remoteFromWorkplace(lj.WorkplaceType)
		if job.Remote == model.RemoteUnknown {
			job.Remote = remoteFromLocation(location)
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
