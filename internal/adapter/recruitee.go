package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/jobsweep/internal/model"
)

type recruiteeLocation struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type recruiteeOffer struct {
	Title              string              `json:"title"`
	CareersURL         string              `json:"careers_url"`
	Description        string              `json:"description"`
	EmploymentTypeCode string              `json:"employment_type_code"`
	Department         string              `json:"department"`
	PublishedAt        string              `json:"published_at"`
	Remote             bool                `json:"remote"`
	Hybrid             bool                `json:"hybrid"`
	City               string              `json:"city"`
	Country            string              `json:"country"`
	Location           string              `json:"location"`
	Locations          []recruiteeLocation `json:"locations"`
}

type recruiteeResponse struct {
	Offers []recruiteeOffer `json:"offers"`
}

// RecruiteeAdapter fetches jobs from a Recruitee company's offers API.
type RecruiteeAdapter struct {
	client *http.Client
}

// NewRecruiteeAdapter creates a new adapter for Recruitee career sites.
func NewRecruiteeAdapter(client *http.Client) *RecruiteeAdapter {
	return &RecruiteeAdapter{client: client}
}

// FetchJobs retrieves all offers from https://<company>.recruitee.com/api/offers.
func (a *RecruiteeAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	u, err := url.Parse(strings.TrimSpace(src.URL))
	if err != nil || !strings.HasSuffix(u.Hostname(), ".recruitee.com") {
		return nil, fmt.Errorf("recruitee fetch for %s: %w", src.ID,
			model.ParseErrorf(err, "not a recruitee url %q", src.URL))
	}
	apiURL := "https://" + u.Host + "/api/offers"

	var rResp recruiteeResponse
	if err := fetchJSON(ctx, a.client, http.MethodGet, apiURL, nil, &rResp); err != nil {
		return nil, fmt.Errorf("recruitee fetch for %s: %w", u.Hostname(), err)
	}

	jobs := make([]model.JobRecord, 0, len(rResp.Offers))
	for _, o := range rResp.Offers {
		location := joinNonEmpty(", ", o.City, o.Country)
		if len(o.Locations) > 0 {
			if l := joinNonEmpty(", ", o.Locations[0].City, o.Locations[0].Country); l != "" {
				location = l
			}
		}
		if location == "" {
			location = o.Location
		}

		job := newRecord(src, "Recruitee")
		job.JobTitle = o.Title
		job.Location = location
		job.JobLink = o.CareersURL
		job.Description = extractText(o.Description)
		job.EmploymentType = employmentTypeFromCode(o.EmploymentTypeCode)
		job.Department = o.Department
		job.PostedDate = isoDate(o.PublishedAt)
		switch {
		case o.Remote:
			job.Remote = model.RemoteYes
		case o.Hybrid:
			job.Remote = model.RemoteHybrid
		default:
			job.Remote = model.RemoteNo
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

// employmentTypeFromCode turns "fulltime_permanent" into "Fulltime Permanent".
func employmentTypeFromCode(code string) string {
	words := strings.Fields(strings.ReplaceAll(code, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
