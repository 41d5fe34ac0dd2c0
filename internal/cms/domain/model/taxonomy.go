package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Settings fields that hold taxonomy data
const (
	FieldTaxonomy           = "taxonomy"
	FieldTaxonomyServices   = "taxonomyServices"
	FieldTaxonomyCategories = "taxonomyCategories"
	FieldTaxonomyBackup     = "taxonomyBackup"
	FieldCategory           = "category"
)

// DefaultTagType is used when a tag is created without a type
const DefaultTagType = "general"

// Tag is one entry of settings.taxonomy.
type Tag struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Link       string `json:"link"`
	Type       string `json:"type"`
	UsageCount int    `json:"usageCount"`
}

// NewTagID derives a tag id from a timestamp.
func NewTagID(now time.Time) string {
	return fmt.Sprintf("tag-%d", now.UnixMilli())
}

// TagsFromSettings reads settings.taxonomy. Missing taxonomy is an empty list.
func TagsFromSettings(settings Document) ([]Tag, error) {
	raw, ok := settings[FieldTaxonomy]
	if !ok || raw == nil {
		return []Tag{}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var tags []Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("settings.taxonomy is not a list of tags: %w", err)
	}
	if tags == nil {
		tags = []Tag{}
	}
	return tags, nil
}

// SetTags stores tags back into settings.
func SetTags(settings Document, tags []Tag) {
	settings[FieldTaxonomy] = tags
}

// FindTag returns the index of the tag with id, or -1.
func FindTag(tags []Tag, id string) int {
	for i, t := range tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ProjectReferences lists every tag name a project refers to: its category
// followed by its services. A name used in both places appears twice.
func ProjectReferences(project Document) []string {
	var refs []string
	if category, ok := project[FieldCategory].(string); ok {
		if category = strings.TrimSpace(category); category != "" {
			refs = append(refs, category)
		}
	}
	for _, s := range StringList(project[FieldServices]) {
		if s = strings.TrimSpace(s); s != "" {
			refs = append(refs, s)
		}
	}
	return refs
}

// RecountUsage sets each tag's usageCount to the number of project references
// to its name. It is the only place usageCount is computed.
func RecountUsage(tags []Tag, projects []Document) {
	counts := make(map[string]int)
	for _, p := range projects {
		for _, ref := range ProjectReferences(p) {
			counts[ref]++
		}
	}
	for i := range tags {
		tags[i].UsageCount = counts[strings.TrimSpace(tags[i].Name)]
	}
}

// ReplaceReference rewrites every reference to from with to across projects.
// An empty to removes the reference. It returns the number of projects changed.
func ReplaceReference(projects []Document, from, to string) int {
	changed := 0
	for _, p := range projects {
		touched := false
		if category, ok := p[FieldCategory].(string); ok && category == from {
			p[FieldCategory] = to
			touched = true
		}
		if _, ok := p[FieldServices]; ok {
			services := StringList(p[FieldServices])
			out := make([]string, 0, len(services))
			seen := make(map[string]bool, len(services))
			hit := false
			for _, s := range services {
				if s == from {
					hit = true
					if to == "" {
						continue
					}
					s = to
				}
				if seen[s] {
					continue
				}
				seen[s] = true
				out = append(out, s)
			}
			if hit {
				p[FieldServices] = out
				touched = true
			}
		}
		if touched {
			changed++
		}
	}
	return changed
}

// DeriveTags builds a fresh taxonomy from the names projects use, sorted by
// name, with usage counted.
func DeriveTags(projects []Document, now time.Time) []Tag {
	names := make(map[string]struct{})
	for _, p := range projects {
		for _, ref := range ProjectReferences(p) {
			names[ref] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	tags := make([]Tag, 0, len(sorted))
	for i, n := range sorted {
		tags = append(tags, Tag{
			ID:   fmt.Sprintf("tag-%d-%d", now.UnixMilli(), i),
			Name: n,
			Type: DefaultTagType,
		})
	}
	RecountUsage(tags, projects)
	return tags
}

// TagSplitSuggestion flags a tag whose name looks like several tags joined by commas.
type TagSplitSuggestion struct {
	Tag      Tag      `json:"tag"`
	Parts    []string `json:"parts"`
	Existing []string `json:"existing"`
}

// CombinedTagReport lists tags with commas in their names, the parts they
// could be split into and which of those parts already exist as tags.
func CombinedTagReport(tags []Tag) []TagSplitSuggestion {
	report := []TagSplitSuggestion{}
	for _, tag := range tags {
		if !strings.Contains(tag.Name, ",") {
			continue
		}
		parts := SplitNames(tag.Name)
		existing := []string{}
		for _, part := range parts {
			for _, other := range tags {
				if other.ID != tag.ID && strings.EqualFold(other.Name, part) {
					existing = append(existing, part)
					break
				}
			}
		}
		report = append(report, TagSplitSuggestion{Tag: tag, Parts: parts, Existing: existing})
	}
	return report
}
