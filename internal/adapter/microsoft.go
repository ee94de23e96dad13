package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amishk599/jobsweep/internal/model"
)

const (
	microsoftBaseURL  = "https://apply.careers.microsoft.com"
	microsoftDomain   = "microsoft.com"
	microsoftPageSize = 10
	microsoftMaxPages = 100
)

type microsoftPosition struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Locations   []string `json:"locations"`
	PostedTs    int64    `json:"postedTs"`
	PositionURL string   `json:"positionUrl"`
	Department  string   `json:"department"`
	WorkOption  string   `json:"workLocationOption"`
}

type microsoftSearchResponse struct {
	Data struct {
		Positions []microsoftPosition `json:"positions"`
		Count     int                 `json:"count"`
	} `json:"data"`
}

// MicrosoftAdapter pages through the Microsoft careers search API. The
// source URL may carry "query" and "location" parameters to narrow the
// search; without them every listing is returned.
type MicrosoftAdapter struct {
	client *http.Client
}

// NewMicrosoftAdapter creates a new adapter for Microsoft careers.
func NewMicrosoftAdapter(client *http.Client) *MicrosoftAdapter {
	return &MicrosoftAdapter{client: client}
}

// FetchJobs retrieves every page of search results, up to microsoftMaxPages.
func (a *MicrosoftAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	params, err := microsoftSearchParams(src.URL)
	if err != nil {
		return nil, fmt.Errorf("microsoft fetch for %s: %w", src.ID, err)
	}

	var jobs []model.JobRecord
	seen := make(map[int64]bool)
	for page := 0; page < microsoftMaxPages; page++ {
		start := page * microsoftPageSize
		params.Set("start", strconv.Itoa(start))

		var resp microsoftSearchResponse
		u := microsoftBaseURL + "/api/pcsx/search?" + params.Encode()
		if err := fetchJSON(ctx, a.client, http.MethodGet, u, nil, &resp); err != nil {
			return nil, fmt.Errorf("microsoft fetch page (start=%d): %w", start, err)
		}

		for _, p := range resp.Data.Positions {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			jobs = append(jobs, microsoftRecord(src, p))
		}

		if len(resp.Data.Positions) == 0 || start+microsoftPageSize >= resp.Data.Count {
			break
		}
	}
	return jobs, nil
}

func microsoftRecord(src model.SourceConfig, p microsoftPosition) model.JobRecord {
	job := newRecord(src, "Microsoft")
	job.JobTitle = p.Name
	job.Department = p.Department
	job.Location = strings.Join(p.Locations, "; ")
	if p.PositionURL != "" {
		job.JobLink = microsoftBaseURL + p.PositionURL
	} else {
		job.JobLink = fmt.Sprintf("%s/careers/job/%d", microsoftBaseURL, p.ID)
	}
	if p.PostedTs > 0 {
		job.PostedDate = unixMillisDate(p.PostedTs * 1000)
	}
	job.Remote = remoteFromWorkplace(p.WorkOption)
	if job.Remote == model.RemoteUnknown && len(p.Locations) > 0 {
		job.Remote = remoteFromLocation(job.Location)
	}
	return job
}

// microsoftSearchParams builds the fixed search parameters, carrying over
// query and location from the source URL.
func microsoftSearchParams(rawURL string) (url.Values, error) {
	q := url.Values{}
	q.Set("domain", microsoftDomain)
	q.Set("sort_by", "timestamp")
	if rawURL == "" {
		return q, nil
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, model.ParseErrorf(err, "invalid source url %q", rawURL)
	}
	for _, k := range []string{"query", "location"} {
		if v := u.Query().Get(k); v != "" {
			q.Set(k, v)
		}
	}
	return q, nil
}
