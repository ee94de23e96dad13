package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobsweep/internal/model"
)

type rawSource struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Enabled     *bool  `yaml:"enabled"` // defaults to true
}

func (r rawSource) toSource() model.SourceConfig {
	enabled := r.Enabled == nil || *r.Enabled
	name := r.Name
	if name == "" {
		name = r.ID
	}
	return model.SourceConfig{
		ID:          r.ID,
		Name:        name,
		Description: r.Description,
		URL:         strings.TrimSpace(r.URL),
		Type:        strings.TrimSpace(r.Type),
		Enabled:     enabled,
	}
}

func inlineSources(raws []rawSource) ([]model.SourceConfig, error) {
	ids := newIDAllocator()
	out := make([]model.SourceConfig, 0, len(raws))
	for i, r := range raws {
		if r.ID == "" && r.Name == "" {
			return nil, fmt.Errorf("sources[%d]: id or name is required", i)
		}
		if r.ID == "" {
			r.ID = ids.next(r.Name)
		} else {
			ids.claim(r.ID)
		}
		out = append(out, r.toSource())
	}
	return out, nil
}

// LoadSources reads a source registry file. Files ending in .csv use the
// spreadsheet format with Name, Website, Career Page, Label, Description and
// Active columns; anything else is read as a YAML list of sources.
func LoadSources(path string) ([]model.SourceConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		srcs, err := ReadSourcesCSV(f)
		if err != nil {
			return nil, fmt.Errorf("read sources file %s: %w", path, err)
		}
		return srcs, nil
	}

	var raws []rawSource
	if err := yaml.NewDecoder(f).Decode(&raws); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	return inlineSources(raws)
}

// ReadSourcesCSV parses the spreadsheet registry format. Name falls back to
// a name derived from Website. When an Active column exists only rows marked
// "active" are enabled.
func ReadSourcesCSV(r io.Reader) ([]model.SourceConfig, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := col["Career Page"]; !ok {
		return nil, errors.New(`missing column "Career Page"`)
	}
	if _, ok := col["Name"]; !ok {
		if _, ok := col["Website"]; !ok {
			return nil, errors.New(`need a "Name" or "Website" column`)
		}
	}
	_, hasActive := col["Active"]

	ids := newIDAllocator()
	var out []model.SourceConfig
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		name := get("Name")
		if name == "" {
			name = DomainName(get("Website"))
		}
		if name == "" {
			continue
		}
		out = append(out, model.SourceConfig{
			ID:          ids.next(name),
			Name:        name,
			Description: get("Description"),
			URL:         get("Career Page"),
			Type:        get("Label"),
			Enabled:     !hasActive || strings.EqualFold(get("Active"), "active"),
		})
	}
	return out, nil
}

// DomainName turns a website URL into a display name:
// "https://www.acme-corp.io/about" becomes "Acme-corp".
func DomainName(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	first, _, _ := strings.Cut(host, ".")
	if first == "" {
		return ""
	}
	return strings.ToUpper(first[:1]) + first[1:]
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses every run of other characters to "-".
func Slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// idAllocator hands out unique slugs, suffixing repeats with -2, -3...
type idAllocator struct {
	used map[string]bool
}

func newIDAllocator() *idAllocator {
	return &idAllocator{used: make(map[string]bool)}
}

func (a *idAllocator) claim(id string) {
	a.used[id] = true
}

func (a *idAllocator) next(name string) string {
	base := Slug(name)
	if base == "" {
		base = "source"
	}
	id := base
	for n := 2; a.used[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	a.used[id] = true
	return id
}
