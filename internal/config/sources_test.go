package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/amishk599/jobsweep/internal/model"
)

func TestReadSourcesCSV_NameColumnAndDuplicates(t *testing.T) {
	data := "Name,Website,Career Page,Label,Description\n" +
		"Acme,https://acme.com,https://jobs.ashbyhq.com/acme,ashby,Rockets\n" +
		"Acme,https://acme.de,https://jobs.ashbyhq.com/acme-de,ashby,\n" +
		",https://www.initech.com/about,https://initech.wd1.myworkdayjobs.com/en-US/careers,Workday,\n"

	got, err := ReadSourcesCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := []model.SourceConfig{
		{ID: "acme", Name: "Acme", Description: "Rockets", URL: "https://jobs.ashbyhq.com/acme", Type: "ashby", Enabled: true},
		{ID: "acme-2", Name: "Acme", URL: "https://jobs.ashbyhq.com/acme-de", Type: "ashby", Enabled: true},
		{ID: "initech", Name: "Initech", URL: "https://initech.wd1.myworkdayjobs.com/en-US/careers", Type: "Workday", Enabled: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestReadSourcesCSV_ActiveIsCaseInsensitive(t *testing.T) {
	data := "Website,Career Page,Label,Active\n" +
		"a.com,https://x/a,lever,Active\n" +
		"b.com,https://x/b,lever,paused\n" +
		"c.com,https://x/c,lever,\n"
	got, err := ReadSourcesCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	var enabled []string
	for _, s := range got {
		if s.Enabled {
			enabled = append(enabled, s.ID)
		}
	}
	if diff := cmp.Diff([]string{"a"}, enabled); diff != "" {
		t.Errorf("enabled (-want +got):\n%s", diff)
	}
}

func TestReadSourcesCSV_MissingColumns(t *testing.T) {
	if _, err := ReadSourcesCSV(strings.NewReader("Name,Label\nAcme,lever\n")); err == nil {
		t.Fatal("expected error without Career Page column")
	}
	if _, err := ReadSourcesCSV(strings.NewReader("Career Page,Label\nhttps://x,lever\n")); err == nil {
		t.Fatal("expected error without Name or Website column")
	}
}

func TestLoadSources_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sources.yaml", `
- name: Acme
  type: greenhouse
  url: https://boards.greenhouse.io/acme
- id: custom
  name: Acme
  type: lever
  url: https://jobs.lever.co/acme
`)
	got, err := LoadSources(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "acme" || got[1].ID != "custom" || !got[0].Enabled {
		t.Fatalf("unexpected sources %+v", got)
	}
}

func TestLoadSources_Missing(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "none.csv")); err == nil {
		t.Fatal("expected error")
	}
}

func TestDomainName(t *testing.T) {
	tests := map[string]string{
		"https://www.acme.com":         "Acme",
		"http://globex.io/careers":     "Globex",
		"initech.co.uk":                "Initech",
		"https://WWW.Big-Corp.com/x?y": "Big-corp",
		"":                             "",
	}
	for in, want := range tests {
		if got := DomainName(in); got != want {
			t.Errorf("DomainName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("  Acme, Inc. (EU) "); got != "acme-inc-eu" {
		t.Errorf("Slug = %q", got)
	}
}
