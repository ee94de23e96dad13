package adapter

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/amishk599/jobsweep/internal/model"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	model.PostedDateLayout,
}

// isoDate normalizes a vendor timestamp to YYYY-MM-DD. Unparseable input
// yields an empty string rather than a malformed date.
func isoDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.PostedDateLayout)
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse(model.PostedDateLayout, s[:10]); err == nil {
			return t.Format(model.PostedDateLayout)
		}
	}
	return ""
}

// unixMillisDate formats a Unix millisecond timestamp as YYYY-MM-DD.
func unixMillisDate(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(model.PostedDateLayout)
}

// remoteFromLocation infers remote status from a free-text location.
func remoteFromLocation(loc string) model.RemoteStatus {
	l := strings.ToLower(loc)
	switch {
	case l == "":
		return model.RemoteUnknown
	case strings.Contains(l, "hybrid"):
		return model.RemoteHybrid
	case strings.Contains(l, "remote"):
		return model.RemoteYes
	}
	return model.RemoteNo
}

// remoteFromWorkplace maps the workplace type vocabularies used by Lever and
// Ashby ("remote", "hybrid", "onsite", "OnSite", ...).
func remoteFromWorkplace(wt string) model.RemoteStatus {
	switch strings.ToLower(strings.ReplaceAll(wt, "-", "")) {
	case "remote":
		return model.RemoteYes
	case "hybrid":
		return model.RemoteHybrid
	case "onsite", "on site", "inoffice":
		return model.RemoteNo
	}
	return model.RemoteUnknown
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// newRecord returns a record pre-filled with the source-level fields.
func newRecord(src model.SourceConfig, ats string) model.JobRecord {
	company := src.Name
	if company == "" {
		company = src.ID
	}
	return model.JobRecord{
		CompanyName:        company,
		CompanyDescription: src.Description,
		Remote:             model.RemoteUnknown,
		Label:              src.Type,
		ATS:                ats,
	}
}

// pathSegments returns the non-empty path segments of rawURL.
func pathSegments(rawURL string) ([]string, *url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, nil, err
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs, u, nil
}

// boardSlug extracts the board identifier from a career page or API URL. If
// the path contains marker, the segment after it wins; otherwise the last
// path segment is used.
func boardSlug(rawURL, marker string) (string, error) {
	segs, u, err := pathSegments(rawURL)
	if err != nil {
		return "", model.ParseErrorf(err, "invalid source url %q", rawURL)
	}
	if v := u.Query().Get("for"); v != "" {
		return v, nil
	}
	if marker != "" {
		for i, s := range segs {
			if s == marker && i+1 < len(segs) {
				return segs[i+1], nil
			}
		}
	}
	if len(segs) == 0 {
		return "", model.ParseErrorf(nil, "no board slug in url %q", rawURL)
	}
	return segs[len(segs)-1], nil
}
