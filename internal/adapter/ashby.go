package adapter

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/amishk599/jobsweep/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	Title            string `json:"title"`
	Location         string `json:"location"`
	Department       string `json:"department"`
	Team             string `json:"team"`
	EmploymentType   string `json:"employmentType"`
	JobUrl           string `json:"jobUrl"`
	PublishedAt      string `json:"publishedAt"`
	IsListed         bool   `json:"isListed"`
	IsRemote         bool   `json:"isRemote"`
	WorkplaceType    string `json:"workplaceType"`
	DescriptionPlain string `json:"descriptionPlain"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	client *http.Client
}

// NewAshbyAdapter creates a new adapter for Ashby job boards.
func NewAshbyAdapter(client *http.Client) *AshbyAdapter {
	return &AshbyAdapter{client: client}
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// FetchJobs retrieves all listed jobs from the source's Ashby job board and
// normalizes them into job records.
func (a *AshbyAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	token, err := boardSlug(src.URL, "job-board")
	if err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", src.ID, err)
	}
	url := fmt.Sprintf("%s/%s?includeCompensation=true", ashbyBaseURL, token)

	var ashbyResp ashbyResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, &ashbyResp); err != nil {
		return nil, fmt.Errorf("ashby fetch for %s: %w", token, err)
	}

	jobs := make([]model.JobRecord, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if !aj.IsListed {
			continue
		}

		job := newRecord(src, "Ashby")
		job.JobTitle = aj.Title
		job.Location = aj.Location
		job.JobLink = aj.JobUrl
		job.Description = aj.DescriptionPlain
		job.Department = aj.Department
		if job.Department == "" {
			job.Department = aj.Team
		}
		// "FullTime" -> "Full Time"
		job.EmploymentType = camelBoundary.ReplaceAllString(aj.EmploymentType, "$1 $2")
		job.PostedDate = isoDate(aj.PublishedAt)

		job.Remote = remoteFromWorkplace(aj.WorkplaceType)
		if job.Remote == model.RemoteUnknown {
			job.Remote = model.RemoteNo
			if aj.IsRemote {
				job.Remote = model.RemoteYes
			}
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
