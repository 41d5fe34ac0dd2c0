package usecase

import (
	"context"
	"testing"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTaxonomy(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	store.put(t, "projects", []map[string]interface{}{
		{"id": 1, "category": "Web", "services": []string{"Design", "Dev"}},
		{"id": 2, "category": "Print", "services": []string{"Design"}},
	})
	store.put(t, "settings", map[string]interface{}{
		"companyName": "Acme",
		"taxonomy": []map[string]interface{}{
			{"id": "tag-1", "name": "Design", "link": "/design", "type": "service", "usageCount": 0},
			{"id": "tag-2", "name": "Dev", "link": "", "type": "general", "usageCount": 0},
			{"id": "tag-3", "name": "Web", "link": "", "type": "category", "usageCount": 0},
		},
	})
	return store
}

func strPtr(s string) *string { return &s }

func projectsOf(t *testing.T, store *memStore) []model.Document {
	return decodeSequence(t, store.raw("projects"))
}

func TestListTags_Empty(t *testing.T) {
	tags, err := newTestUsecase(newMemStore()).ListTags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestCreateTag(t *testing.T) {
	store := seedTaxonomy(t)
	uc := newTestUsecase(store)
	ctx := context.Background()

	tag, err := uc.CreateTag(ctx, CreateTagInput{Name: "  Print "})
	require.NoError(t, err)
	assert.Equal(t, "tag-1700000000000", tag.ID)
	assert.Equal(t, "Print", tag.Name)
	assert.Equal(t, model.DefaultTagType, tag.Type)
	assert.Equal(t, 1, tag.UsageCount)

	again, err := uc.CreateTag(ctx, CreateTagInput{Name: "Branding", Type: "service"})
	require.NoError(t, err)
	assert.Equal(t, "tag-1700000000000-1", again.ID)
	assert.Equal(t, "service", again.Type)

	settings, err := uc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme", settings["companyName"])

	tags, err := uc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 5)
	assert.Equal(t, 2, tags[0].UsageCount, "Design is counted on create")
}

func TestCreateTag_RequiresName(t *testing.T) {
	_, err := newTestUsecase(newMemStore()).CreateTag(context.Background(), CreateTagInput{Name: "   "})
	assert.True(t, errors.IsValidation(err))
}

func TestUpdateTag_RenameCascades(t *testing.T) {
	store := seedTaxonomy(t)
	uc := newTestUsecase(store)

	tag, err := uc.UpdateTag(context.Background(), "tag-1", UpdateTagInput{Name: strPtr("UX Design"), Link: strPtr("/ux")})
	require.NoError(t, err)
	assert.Equal(t, "UX Design", tag.Name)
	assert.Equal(t, "/ux", tag.Link)
	assert.Equal(t, "service", tag.Type)
	assert.Equal(t, 2, tag.UsageCount)

	projects := projectsOf(t, store)
	assert.Equal(t, []interface{}{"UX Design", "Dev"}, projects[0]["services"])
	assert.Equal(t, []interface{}{"UX Design"}, projects[1]["services"])
}

func TestUpdateTag_NotFound(t *testing.T) {
	_, err := newTestUsecase(seedTaxonomy(t)).UpdateTag(context.Background(), "tag-404", UpdateTagInput{Link: strPtr("/x")})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "Tag not found", err.Error())
}

func TestUpdateTag_RejectsEmptyName(t *testing.T) {
	_, err := newTestUsecase(seedTaxonomy(t)).UpdateTag(context.Background(), "tag-1", UpdateTagInput{Name: strPtr(" ")})
	assert.True(t, errors.IsValidation(err))
}

func TestDeleteTag_CascadesIntoProjects(t *testing.T) {
	store := seedTaxonomy(t)
	uc := newTestUsecase(store)
	ctx := context.Background()

	require.NoError(t, uc.DeleteTag(ctx, "tag-3"))

	projects := projectsOf(t, store)
	assert.Equal(t, "", projects[0]["category"])
	assert.Equal(t, "Print", projects[1]["category"])

	tags, err := uc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
	assert.Equal(t, -1, model.FindTag(tags, "tag-3"))

	err = uc.DeleteTag(ctx, "tag-3")
	assert.True(t, errors.IsNotFound(err))
}

func TestMergeTags(t *testing.T) {
	store := seedTaxonomy(t)
	uc := newTestUsecase(store)

	target, err := uc.MergeTags(context.Background(), "tag-2", "tag-1")
	require.NoError(t, err)
	assert.Equal(t, "tag-1", target.ID)
	assert.Equal(t, 2, target.UsageCount)

	projects := projectsOf(t, store)
	assert.Equal(t, []interface{}{"Design"}, projects[0]["services"])

	tags, err := uc.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -1, model.FindTag(tags, "tag-2"))
}

func TestMergeTags_Invalid(t *testing.T) {
	uc := newTestUsecase(seedTaxonomy(t))
	ctx := context.Background()

	_, err := uc.MergeTags(ctx, "tag-1", "tag-1")
	assert.True(t, errors.IsValidation(err))

	_, err = uc.MergeTags(ctx, "tag-1", "")
	assert.True(t, errors.IsValidation(err))

	_, err = uc.MergeTags(ctx, "tag-1", "tag-404")
	assert.True(t, errors.IsNotFound(err))
}

func TestRebuildTaxonomy(t *testing.T) {
	store := seedTaxonomy(t)
	store.put(t, "settings", map[string]interface{}{
		"taxonomy":         []map[string]interface{}{{"id": "tag-1", "name": "Design", "link": "/design", "type": "service"}},
		"taxonomyServices": []string{"Design", "Dev"},
	})
	uc := newTestUsecase(store)
	ctx := context.Background()

	result, err := uc.RebuildTaxonomy(ctx)
	require.NoError(t, err)
	assert.True(t, result.BackedUp)
	assert.Equal(t, 3, result.Created)
	require.Len(t, result.Tags, 4)

	design := result.Tags[model.FindTag(result.Tags, "tag-1")]
	assert.Equal(t, "Design", design.Name)
	assert.Equal(t, "/design", design.Link)
	assert.Equal(t, 2, design.UsageCount)

	settings, err := uc.GetSettings(ctx)
	require.NoError(t, err)
	assert.NotContains(t, settings, model.FieldTaxonomyServices)
	backup, ok := settings[model.FieldTaxonomyBackup].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"Design", "Dev"}, backup["services"])
	assert.Equal(t, []interface{}{}, backup["categories"])
}

func TestTaxonomyReport(t *testing.T) {
	store := newMemStore()
	store.put(t, "settings", map[string]interface{}{
		"taxonomy": []map[string]interface{}{
			{"id": "a", "name": "Design, Dev"},
			{"id": "b", "name": "Dev"},
		},
	})
	report, err := newTestUsecase(store).TaxonomyReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, []string{"Dev"}, report[0].Existing)
}
