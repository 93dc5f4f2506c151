package dashboard

import (
	"fmt"
	"strings"

	"github.com/michel-emel/imce-project/internal/dataset"
	"github.com/michel-emel/imce-project/internal/filter"
)

// Builder computes a page for the current selection
type Builder func(store *dataset.Store, sel filter.Selection) *Page

// Entry is one navigable page
type Entry struct {
	Slug  string `json:"slug"`
	Path  string `json:"path"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	// Dataset is the file the page needs, empty for multi-dataset pages
	Dataset dataset.Name `json:"dataset,omitempty"`

	build Builder
}

// Build runs the page builder and stamps navigation metadata on the result
func (e Entry) Build(store *dataset.Store, sel filter.Selection) *Page {
	if sel == nil {
		sel = filter.Selection{}
	}
	p := e.build(store, sel)
	p.Slug, p.Path = e.Slug, e.Path
	if p.Title == "" {
		p.Title = e.Title
	}
	return p
}

// Slug of the landing page
const ExecutiveSlug = "executive"

var registry = []Entry{
	{Slug: ExecutiveSlug, Path: "/", Title: "Executive Summary", Icon: "◎", build: BuildExecutive},
	{Slug: "paps", Path: "/paps", Title: "Project Affected Persons", Icon: "⌂", Dataset: dataset.NamePAPs, build: BuildPAPs},
	{Slug: "workers", Path: "/workers", Title: "Workers", Icon: "⚒", Dataset: dataset.NameWorkers, build: BuildWorkers},
	{Slug: "contractors", Path: "/contractors", Title: "Contractors", Icon: "▣", Dataset: dataset.NameContractors, build: BuildContractors},
	{Slug: "grc", Path: "/grc", Title: "Grievance Redress Committees", Icon: "⚖", Dataset: dataset.NameGRC, build: BuildGRC},
	{Slug: "district", Path: "/district", Title: "District Summary", Icon: "▦", Dataset: dataset.NameDistrict, build: BuildDistrict},
	{Slug: "checklist", Path: "/checklist", Title: "Site Audit Checklist", Icon: "☑", Dataset: dataset.NameChecklist, build: BuildChecklist},
	{Slug: "crossanalysis", Path: "/crossanalysis", Title: "Cross Analysis", Icon: "⇄", build: BuildCross},
}

// Pages returns the navigation in display order
func Pages() []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a page by slug
func Lookup(slug string) (Entry, error) {
	for _, e := range registry {
		if e.Slug == slug {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrUnknownPage, slug)
}

// Resolve maps a request path to its page; unknown paths land on the
// executive summary
func Resolve(path string) Entry {
	path = "/" + strings.Trim(path, "/")
	for _, e := range registry {
		if e.Path == path {
			return e
		}
	}
	return registry[0]
}

// missing returns the placeholder page when name is not loaded
func missing(store *dataset.Store, name dataset.Name) *Page {
	if store.Loaded(name) {
		return nil
	}
	return &Page{Missing: store.Placeholder(name)}
}
