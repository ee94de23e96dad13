package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/amishk599/jobsweep/internal/model"
)

const workableBaseURL = "https://apply.workable.com/api/v1/widget/accounts"

type workableLocation struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type workableJob struct {
	Title          string             `json:"title"`
	Shortcode      string             `json:"shortcode"`
	EmploymentType string             `json:"employment_type"`
	Telecommuting  bool               `json:"telecommuting"`
	Department     string             `json:"department"`
	Function       string             `json:"function"`
	URL            string             `json:"url"`
	PublishedOn    string             `json:"published_on"`
	City           string             `json:"city"`
	Country        string             `json:"country"`
	Locations      []workableLocation `json:"locations"`
}

type workableResponse struct {
	Name string        `json:"name"`
	Jobs []workableJob `json:"jobs"`
}

// WorkableAdapter fetches jobs from the Workable widget API.
type WorkableAdapter struct {
	client *http.Client
}

// NewWorkableAdapter creates a new adapter for Workable accounts.
func NewWorkableAdapter(client *http.Client) *WorkableAdapter {
	return &WorkableAdapter{client: client}
}

// FetchJobs retrieves all published jobs for the source's Workable account.
// Career page URLs look like https://apply.workable.com/<account>.
func (a *WorkableAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	account, err := workableAccount(src.URL)
	if err != nil {
		return nil, fmt.Errorf("workable fetch for %s: %w", src.ID, err)
	}
	url := fmt.Sprintf("%s/%s", workableBaseURL, account)

	var wResp workableResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, url, nil, &wResp); err != nil {
		return nil, fmt.Errorf("workable fetch for %s: %w", account, err)
	}

	jobs := make([]model.JobRecord, 0, len(wResp.Jobs))
	for _, wj := range wResp.Jobs {
		location := joinNonEmpty(", ", wj.City, wj.Country)
		if len(wj.Locations) > 0 {
			location = joinNonEmpty(", ", wj.Locations[0].City, wj.Locations[0].Country)
		}

		job := newRecord(src, "Workable")
		job.JobTitle = wj.Title
		job.Location = location
		job.JobLink = wj.URL
		if job.JobLink == "" && wj.Shortcode != "" {
			job.JobLink = fmt.Sprintf("https://apply.workable.com/%s/j/%s/", account, wj.Shortcode)
		}
		job.EmploymentType = wj.EmploymentType
		job.Department = wj.Department
		if job.Department == "" {
			job.Department = wj.Function
		}
		job.PostedDate = isoDate(wj.PublishedOn)
		job.Remote = model.RemoteNo
		if wj.Telecommuting {
			job.Remote = model.RemoteYes
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// workableAccount picks the account slug: the segment after "accounts" for
// API URLs, otherwise the first path segment.
func workableAccount(raw string) (string, error) {
	segs, _, err := pathSegments(raw)
	if err != nil {
		return "", model.ParseErrorf(err, "invalid workable url %q", raw)
	}
	for i, s := range segs {
		if s == "accounts" && i+1 < len(segs) {
			return segs[i+1], nil
		}
	}
	if len(segs) == 0 {
		return "", model.ParseErrorf(nil, "no workable account in url %q", raw)
	}
	return segs[0], nil
}
