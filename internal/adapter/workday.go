package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

const (
	workdayPageSize = 20
	workdayMaxPages = 100
)

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	RemoteType    string   `json:"remoteType"`
	BulletFields  []string `json:"bulletFields"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// workdaySite locates a tenant's career site. A public URL such as
// https://acme.wd5.myworkdayjobs.com/en-US/External maps to the CXS API at
// https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/External.
type workdaySite struct {
	apiBase  string
	siteBase string // prefix for job links
}

func parseWorkdaySite(raw string) (workdaySite, error) {
	segs, u, err := pathSegments(raw)
	if err != nil || u.Host == "" {
		return workdaySite{}, model.ParseErrorf(err, "invalid workday url %q", raw)
	}
	origin := u.Scheme + "://" + u.Host

	for i, s := range segs {
		if s == "cxs" && i+2 < len(segs) {
			site := segs[i+2]
			return workdaySite{
				apiBase:  origin + "/wday/cxs/" + segs[i+1] + "/" + site,
				siteBase: origin + "/" + site,
			}, nil
		}
	}

	tenant, _, _ := strings.Cut(u.Hostname(), ".")
	// Drop a leading locale segment like "en-US".
	if len(segs) > 1 && localeRegex.MatchString(segs[0]) {
		segs = segs[1:]
	}
	if len(segs) == 0 || tenant == "" {
		return workdaySite{}, model.ParseErrorf(nil, "no workday site in url %q", raw)
	}
	site := segs[0]
	return workdaySite{
		apiBase:  origin + "/wday/cxs/" + tenant + "/" + site,
		siteBase: origin + "/" + site,
	}, nil
}

var localeRegex = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

// WorkdayAdapter fetches jobs from Workday career sites.
type WorkdayAdapter struct {
	client *http.Client
	now    func() time.Time
}

// NewWorkdayAdapter creates a new adapter for Workday career sites.
func NewWorkdayAdapter(client *http.Client) *WorkdayAdapter {
	return &WorkdayAdapter{client: client, now: time.Now}
}

// FetchJobs pages through the site's listing endpoint and returns every
// posting. Workday only exposes relative posting dates ("Posted 3 Days Ago"),
// which are resolved against the current day.
func (a *WorkdayAdapter) FetchJobs(ctx context.Context, src model.SourceConfig) ([]model.JobRecord, error) {
	site, err := parseWorkdaySite(src.URL)
	if err != nil {
		return nil, fmt.Errorf("workday fetch for %s: %w", src.ID, err)
	}

	listings, err := a.fetchAllListings(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("workday fetch for %s: %w", src.ID, err)
	}

	jobs := make([]model.JobRecord, 0, len(listings))
	for _, l := range listings {
		job := newRecord(src, "Workday")
		job.JobTitle = l.Title
		job.Location = l.LocationsText
		job.JobLink = workdayJobURL(site.siteBase, l.ExternalPath)
		job.PostedDate = a.postedDate(l.PostedOn)
		job.Remote = remoteFromWorkplace(strings.ReplaceAll(l.RemoteType, " ", ""))
		if job.Remote == model.RemoteUnknown {
			job.Remote = remoteFromLocation(l.LocationsText)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (a *WorkdayAdapter) fetchAllListings(ctx context.Context, site workdaySite) ([]workdayListing, error) {
	var all []workdayListing

	for page, offset := 0, 0; page < workdayMaxPages; page++ {
		body := workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
		}

		var listResp workdayListingResponse
		if err := fetchJSON(ctx, a.client, http.MethodPost, site.apiBase+"/jobs", body, &listResp); err != nil {
			return nil, fmt.Errorf("listing page %d: %w", page, err)
		}

		all = append(all, listResp.JobPostings...)

		offset += workdayPageSize
		if len(listResp.JobPostings) == 0 || offset >= listResp.Total {
			break
		}
	}

	return all, nil
}

// postedDate converts a Workday relative date string to YYYY-MM-DD.
// "Posted 30+ Days Ago" and unknown strings yield an empty date.
func (a *WorkdayAdapter) postedDate(postedOn string) string {
	t := parsePostedOn(postedOn, a.now())
	if t == nil {
		return ""
	}
	return t.Format(model.PostedDateLayout)
}

var daysAgoRegex = regexp.MustCompile(`^Posted (\d+) Days? Ago$`)

// parsePostedOn converts a Workday relative date string to an approximate timestamp.
func parsePostedOn(postedOn string, now time.Time) *time.Time {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch postedOn {
	case "Posted Today":
		return &today
	case "Posted Yesterday":
		t := today.AddDate(0, 0, -1)
		return &t
	}

	if n, ok := parseDaysAgo(postedOn); ok {
		t := today.AddDate(0, 0, -n)
		return &t
	}

	return nil
}

func parseDaysAgo(s string) (int, bool) {
	matches := daysAgoRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}
	n, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// workdayJobURL joins the site base and a posting's external path.
func workdayJobURL(siteBase, externalPath string) string {
	u, err := url.JoinPath(siteBase, externalPath)
	if err != nil {
		return siteBase + externalPath
	}
	return u
}
