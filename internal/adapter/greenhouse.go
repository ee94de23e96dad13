package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobsweep/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64                `json:"id"`
	Title          string               `json:"title"`
	Location       greenhouseLocation   `json:"location"`
	AbsoluteURL    string               `json:"absolute_url"`
	FirstPublished string               `json:"first_published"`
	UpdatedAt      string               `json:"updated_at"`
	Content        string               `json:"content"`
	Departments    []greenhouseNamed    `json:"departments"`
	Metadata       []greenhouseMetadata `json:"metadata"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseNamed struct {
	Name string `json:"name"`
}

type greenhouseMetadata struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	client *http.Client
}

// NewGreenhouseAdapter creates a new adapter for Greenhouse boards.
func NewGreenhouseAdapter(client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{client: client}
}

// FetchJobs retrieves all jobs from the source's Greenhouse board and
// normalizes them into job records.
func (a *GreenhouseAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	token, err := boardSlug(src.URL, "boards")
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", src.ID, err)
	}
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, token)

	var ghResp greenhouseResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, &ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", token, err)
	}

	jobs := make([]model.JobRecord, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		job := newRecord(src, "Greenhouse")
		job.JobTitle = gj.Title
		job.Location = gj.Location.Name
		job.JobLink = gj.AbsoluteURL
		job.Description = extractText(gj.Content)
		job.Remote = remoteFromLocation(gj.Location.Name)

		posted := gj.FirstPublished
		if posted == "" {
			posted = gj.UpdatedAt
		}
		job.PostedDate = isoDate(posted)

		if len(gj.Departments) > 0 {
			job.Department = gj.Departments[0].Name
		}
		for _, m := range gj.Metadata {
			if s, ok := m.Value.(string); ok && isEmploymentTypeField(m.Name) {
				job.EmploymentType = s
			}
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

func isEmploymentTypeField(name string) bool {
	switch name {
	case "Employment Type", "Employment type", "Job Type", "Commitment":
		return true
	}
	return false
}
