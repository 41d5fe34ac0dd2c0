package usecase

import (
	"context"
	"fmt"
	"strings"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/shared/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateTagInput is the body of a tag creation
type CreateTagInput struct {
	Name string `json:"name" validate:"required,max=200"`
	Link string `json:"link" validate:"omitempty,max=2048"`
	Type string `json:"type" validate:"omitempty,max=50"`
}

// UpdateTagInput changes only the fields that are set
type UpdateTagInput struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=200"`
	Link *string `json:"link" validate:"omitempty,max=2048"`
	Type *string `json:"type" validate:"omitempty,max=50"`
}

// RebuildResult summarizes a taxonomy rebuild
type RebuildResult struct {
	Tags     []model.Tag `json:"tags"`
	Created  int         `json:"created"`
	BackedUp bool        `json:"backedUp"`
}

func tagNotFound() error { return errors.NewNotFoundError("Tag") }

// taxonomyState is everything a taxonomy mutation reads
type taxonomyState struct {
	projects []model.Document
	settings model.Document
	tags     []model.Tag
}

// ListTags returns settings.taxonomy
func (uc *CMSUsecase) ListTags(ctx context.Context) ([]model.Tag, error) {
	settings, err := uc.loadMapping(ctx, model.CollectionSettings)
	if err != nil {
		return nil, err
	}
	return uc.tagsOf(settings)
}

// CreateTag adds a tag and counts its current usage
func (uc *CMSUsecase) CreateTag(ctx context.Context, input CreateTagInput) (*model.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid tag: %v", err))
	}

	unlock := uc.locks.lock(model.CollectionProjects, model.CollectionSettings)
	defer unlock()

	state, err := uc.loadTaxonomy(ctx)
	if err != nil {
		return nil, err
	}

	tag := model.Tag{
		ID:   uc.newTagID(state.tags),
		Name: input.Name,
		Link: input.Link,
		Type: input.Type,
	}
	if tag.Type == "" {
		tag.Type = model.DefaultTagType
	}
	state.tags = append(state.tags, tag)

	if err := uc.saveTaxonomy(ctx, state, false); err != nil {
		return nil, err
	}
	created := state.tags[len(state.tags)-1]
	uc.logger.WithContext(ctx).Infof("Created tag %s (%s)", created.ID, created.Name)
	return &created, nil
}

// UpdateTag edits a tag. Renaming rewrites the old name in every project.
func (uc *CMSUsecase) UpdateTag(ctx context.Context, id string, input UpdateTagInput) (*model.Tag, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := validate.Struct(input); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid tag: %v", err))
	}

	unlock := uc.locks.lock(model.CollectionProjects, model.CollectionSettings)
	defer unlock()

	state, err := uc.loadTaxonomy(ctx)
	if err != nil {
		return nil, err
	}
	index := model.FindTag(state.tags, id)
	if index < 0 {
		return nil, tagNotFound()
	}

	tag := &state.tags[index]
	projectsChanged := false
	if input.Name != nil && *input.Name != tag.Name {
		if tag.Name != "" {
			projectsChanged = model.ReplaceReference(state.projects, tag.Name, *input.Name) > 0
		}
		tag.Name = *input.Name
	}
	if input.Link != nil {
		tag.Link = *input.Link
	}
	if input.Type != nil {
		tag.Type = *input.Type
	}

	if err := uc.saveTaxonomy(ctx, state, projectsChanged); err != nil {
		return nil, err
	}
	updated := state.tags[index]
	return &updated, nil
}

// DeleteTag removes a tag and strips its name from every project.
func (uc *CMSUsecase) DeleteTag(ctx context.Context, id string) error {
	unlock := uc.locks.lock(model.CollectionProjects, model.CollectionSettings)
	defer unlock()

	state, err := uc.loadTaxonomy(ctx)
	if err != nil {
		return err
	}
	index := model.FindTag(state.tags, id)
	if index < 0 {
		return tagNotFound()
	}

	name := state.tags[index].Name
	projectsChanged := false
	if name != "" {
		projectsChanged = model.ReplaceReference(state.projects, name, "") > 0
	}
	state.tags = append(state.tags[:index], state.tags[index+1:]...)

	if err := uc.saveTaxonomy(ctx, state, projectsChanged); err != nil {
		return err
	}
	uc.logger.WithContext(ctx).Infof("Deleted tag %s (%s)", id, name)
	return nil
}

// MergeTags points every reference to the source tag at the target and drops the source.
func (uc *CMSUsecase) MergeTags(ctx context.Context, sourceID, targetID string) (*model.Tag, error) {
	if targetID == "" {
		return nil, errors.NewValidationError("targetId is required")
	}
	if sourceID == targetID {
		return nil, errors.NewValidationError("cannot merge a tag into itself")
	}

	unlock := uc.locks.lock(model.CollectionProjects, model.CollectionSettings)
	defer unlock()

	state, err := uc.loadTaxonomy(ctx)
	if err != nil {
		return nil, err
	}
	source := model.FindTag(state.tags, sourceID)
	target := model.FindTag(state.tags, targetID)
	if source < 0 || target < 0 {
		return nil, tagNotFound()
	}

	targetTag := state.tags[target]
	projectsChanged := false
	if name := state.tags[source].Name; name != "" && name != targetTag.Name {
		projectsChanged = model.ReplaceReference(state.projects, name, targetTag.Name) > 0
	}
	state.tags = append(state.tags[:source], state.tags[source+1:]...)

	if err := uc.saveTaxonomy(ctx, state, projectsChanged); err != nil {
		return nil, err
	}
	merged := state.tags[model.FindTag(state.tags, targetID)]
	return &merged, nil
}

// RebuildTaxonomy derives the tag list from the names projects use. Tags that
// already exist keep their id, link and type. Legacy taxonomyServices and
// taxonomyCategories lists move into taxonomyBackup.
func (uc *CMSUsecase) RebuildTaxonomy(ctx context.Context) (*RebuildResult, error) {
	unlock := uc.locks.lock(model.CollectionProjects, model.CollectionSettings)
	defer unlock()

	state, err := uc.loadTaxonomy(ctx)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	derived := model.DeriveTags(state.projects, now)
	existing := make(map[string]model.Tag, len(state.tags))
	for _, t := range state.tags {
		existing[t.Name] = t
	}
	created := 0
	for i, t := range derived {
		if old, ok := existing[t.Name]; ok {
			derived[i].ID = old.ID
			derived[i].Link = old.Link
			if old.Type != "" {
				derived[i].Type = old.Type
			}
			continue
		}
		created++
	}
	state.tags = derived

	backedUp := false
	services, hasServices := state.settings[model.FieldTaxonomyServices]
	categories, hasCategories := state.settings[model.FieldTaxonomyCategories]
	if hasServices || hasCategories {
		if services == nil {
			services = []interface{}{}
		}
		if categories == nil {
			categories = []interface{}{}
		}
		state.settings[model.FieldTaxonomyBackup] = map[string]interface{}{
			"services":   services,
			"categories": categories,
			"migratedAt": now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
		delete(state.settings, model.FieldTaxonomyServices)
		delete(state.settings, model.FieldTaxonomyCategories)
		backedUp = true
	}

	if err := uc.saveTaxonomy(ctx, state, false); err != nil {
		return nil, err
	}
	uc.logger.WithContext(ctx).Infof("Rebuilt taxonomy: %d tags, %d new", len(state.tags), created)
	return &RebuildResult{Tags: state.tags, Created: created, BackedUp: backedUp}, nil
}

// TaxonomyReport lists tags whose names look like several tags joined by commas.
func (uc *CMSUsecase) TaxonomyReport(ctx context.Context) ([]model.TagSplitSuggestion, error) {
	tags, err := uc.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return model.CombinedTagReport(tags), nil
}

func (uc *CMSUsecase) tagsOf(settings model.Document) ([]model.Tag, error) {
	tags, err := model.TagsFromSettings(settings)
	if err != nil {
		return nil, errors.NewInternalError(err.Error()).WithDetail("collection", model.CollectionSettings)
	}
	return tags, nil
}

func (uc *CMSUsecase) loadTaxonomy(ctx context.Context) (*taxonomyState, error) {
	projects, err := uc.loadSequence(ctx, model.CollectionProjects)
	if err != nil {
		return nil, err
	}
	settings, err := uc.loadMapping(ctx, model.CollectionSettings)
	if err != nil {
		return nil, err
	}
	tags, err := uc.tagsOf(settings)
	if err != nil {
		return nil, err
	}
	return &taxonomyState{projects: projects, settings: settings, tags: tags}, nil
}

// saveTaxonomy recounts usage and writes settings, and projects when they changed.
func (uc *CMSUsecase) saveTaxonomy(ctx context.Context, state *taxonomyState, projectsChanged bool) error {
	if projectsChanged {
		if err := uc.save(ctx, model.CollectionProjects, state.projects); err != nil {
			return err
		}
		uc.changed(ctx, model.CollectionProjects, model.ChangeUpdated, "")
	}

	model.RecountUsage(state.tags, state.projects)
	model.SetTags(state.settings, state.tags)
	if err := uc.save(ctx, model.CollectionSettings, state.settings); err != nil {
		return err
	}
	uc.changed(ctx, model.CollectionSettings, model.ChangeUpdated, "")
	return nil
}

// newTagID returns tag-<ms>, suffixed when that id is taken.
func (uc *CMSUsecase) newTagID(tags []model.Tag) string {
	base := model.NewTagID(uc.now())
	id := base
	for n := 1; model.FindTag(tags, id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}
