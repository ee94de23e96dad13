package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobsweep/internal/model"
)

const gemBaseURL = "https://api.gem.com/job_board/v0"

type gemJob struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Location       gemLocation     `json:"location"`
	AbsoluteURL    string          `json:"absolute_url"`
	FirstPublished string          `json:"first_published_at"`
	UpdatedAt      string          `json:"updated_at"`
	Content        string          `json:"content"`
	ContentPlain   string          `json:"content_plain"`
	EmploymentType string          `json:"employment_type"`
	LocationType   string          `json:"location_type"`
	Departments    []gemDepartment `json:"departments"`
}

type gemLocation struct {
	Name string `json:"name"`
}

type gemDepartment struct {
	Name string `json:"name"`
}

// GemAdapter fetches jobs from the Gem public job board API.
type GemAdapter struct {
	client *http.Client
}

// NewGemAdapter creates a new adapter for Gem job boards.
func NewGemAdapter(client *http.Client) *GemAdapter {
	return &GemAdapter{client: client}
}

// FetchJobs retrieves all jobs from the source's Gem board and normalizes
// them into job records.
func (a *GemAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	token, err := boardSlug(src.URL, "v0")
	if err != nil {
		return nil, fmt.Errorf("gem fetch for %s: %w", src.ID, err)
	}
	url := fmt.Sprintf("%s/%s/job_posts/", gemBaseURL, token)

	var gemJobs []gemJob
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, &gemJobs); err != nil {
		return nil, fmt.Errorf("gem fetch for %s: %w", token, err)
	}

	jobs := make([]model.JobRecord, 0, len(gemJobs))
	for _, gj := range gemJobs {
		job := newRecord(src, "Gem")
		job.JobTitle = gj.Title
		job.Location = gj.Location.Name
		job.JobLink = gj.AbsoluteURL
		job.EmploymentType = gj.EmploymentType

		posted := gj.FirstPublished
		if posted == "" {
			posted = gj.UpdatedAt
		}
		job.PostedDate = isoDate(posted)

		desc := gj.ContentPlain
		if desc == "" && gj.Content != "" {
			desc = extractText(gj.Content)
		}
		job.Description = desc

		if len(gj.Departments) > 0 {
			job.Department = gj.Departments[0].Name
		}

		switch gj.LocationType {
		case "REMOTE":
			job.Remote = model.RemoteYes
		case "HYBRID":
			job.Remote = model.RemoteHybrid
		case "IN_OFFICE", "ON_SITE":
			job.Remote = model.RemoteNo
		default:
			job.Remote = remoteFromLocation(gj.Location.Name)
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
