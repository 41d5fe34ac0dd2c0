package http

import (
	"context"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/cms/usecase"
)

// MockContentUC implements usecase.ContentUsecase with overridable funcs
type MockContentUC struct {
	ListFn        func(ctx context.Context, collection string) ([]model.Document, error)
	CreateFn      func(ctx context.Context, collection string, fields model.Document) (model.Document, error)
	UpdateFn      func(ctx context.Context, collection, rawID string, fields model.Document) (model.Document, error)
	DeleteFn      func(ctx context.Context, collection, rawID string) error
	GetSettingsFn func(ctx context.Context) (model.Document, error)
	PutSettingsFn func(ctx context.Context, settings model.Document) (model.Document, error)
	ListPagesFn   func(ctx context.Context) (model.Document, error)
	GetPageFn     func(ctx context.Context, name string) (interface{}, error)
	PutPageFn     func(ctx context.Context, name string, page model.Document) (model.Document, error)
}

var _ usecase.ContentUsecase = (*MockContentUC)(nil)

func (m *MockContentUC) List(ctx context.Context, collection string) ([]model.Document, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, collection)
	}
	return []model.Document{}, nil
}

func (m *MockContentUC) Create(ctx context.Context, collection string, fields model.Document) (model.Document, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, collection, fields)
	}
	return fields, nil
}

func (m *MockContentUC) Update(ctx context.Context, collection string, rawID string, fields model.Document) (model.Document, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, collection, rawID, fields)
	}
	return fields, nil
}

func (m *MockContentUC) Delete(ctx context.Context, collection string, rawID string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, collection, rawID)
	}
	return nil
}

func (m *MockContentUC) GetSettings(ctx context.Context) (model.Document, error) {
	if m.GetSettingsFn != nil {
		return m.GetSettingsFn(ctx)
	}
	return model.Document{}, nil
}

func (m *MockContentUC) PutSettings(ctx context.Context, settings model.Document) (model.Document, error) {
	if m.PutSettingsFn != nil {
		return m.PutSettingsFn(ctx, settings)
	}
	return settings, nil
}

func (m *MockContentUC) ListPages(ctx context.Context) (model.Document, error) {
	if m.ListPagesFn != nil {
		return m.ListPagesFn(ctx)
	}
	return model.Document{}, nil
}

func (m *MockContentUC) GetPage(ctx context.Context, name string) (interface{}, error) {
	if m.GetPageFn != nil {
		return m.GetPageFn(ctx, name)
	}
	return model.Document{}, nil
}

func (m *MockContentUC) PutPage(ctx context.Context, name string, page model.Document) (model.Document, error) {
	if m.PutPageFn != nil {
		return m.PutPageFn(ctx, name, page)
	}
	return page, nil
}

// MockTaxonomyUC implements usecase.TaxonomyUsecase with overridable funcs
type MockTaxonomyUC struct {
	ListTagsFn        func(ctx context.Context) ([]model.Tag, error)
	CreateTagFn       func(ctx context.Context, input usecase.CreateTagInput) (*model.Tag, error)
	UpdateTagFn       func(ctx context.Context, id string, input usecase.UpdateTagInput) (*model.Tag, error)
	DeleteTagFn       func(ctx context.Context, id string) error
	MergeTagsFn       func(ctx context.Context, sourceID, targetID string) (*model.Tag, error)
	RebuildTaxonomyFn func(ctx context.Context) (*usecase.RebuildResult, error)
	TaxonomyReportFn  func(ctx context.Context) ([]model.TagSplitSuggestion, error)
}

var _ usecase.TaxonomyUsecase = (*MockTaxonomyUC)(nil)

func (m *MockTaxonomyUC) ListTags(ctx context.Context) ([]model.Tag, error) {
	if m.ListTagsFn != nil {
		return m.ListTagsFn(ctx)
	}
	return []model.Tag{}, nil
}

func (m *MockTaxonomyUC) CreateTag(ctx context.Context, input usecase.CreateTagInput) (*model.Tag, error) {
	if m.CreateTagFn != nil {
		return m.CreateTagFn(ctx, input)
	}
	return &model.Tag{ID: "tag-1", Name: input.Name, Type: model.DefaultTagType}, nil
}

func (m *MockTaxonomyUC) UpdateTag(ctx context.Context, id string, input usecase.UpdateTagInput) (*model.Tag, error) {
	if m.UpdateTagFn != nil {
		return m.UpdateTagFn(ctx, id, input)
	}
	return &model.Tag{ID: id}, nil
}

func (m *MockTaxonomyUC) DeleteTag(ctx context.Context, id string) error {
	if m.DeleteTagFn != nil {
		return m.DeleteTagFn(ctx, id)
	}
	return nil
}

func (m *MockTaxonomyUC) MergeTags(ctx context.Context, sourceID, targetID string) (*model.Tag, error) {
	if m.MergeTagsFn != nil {
		return m.MergeTagsFn(ctx, sourceID, targetID)
	}
	return &model.Tag{ID: targetID}, nil
}

func (m *MockTaxonomyUC) RebuildTaxonomy(ctx context.Context) (*usecase.RebuildResult, error) {
	if m.RebuildTaxonomyFn != nil {
		return m.RebuildTaxonomyFn(ctx)
	}
	return &usecase.RebuildResult{Tags: []model.Tag{}}, nil
}

func (m *MockTaxonomyUC) TaxonomyReport(ctx context.Context) ([]model.TagSplitSuggestion, error) {
	if m.TaxonomyReportFn != nil {
		return m.TaxonomyReportFn(ctx)
	}
	return []model.TagSplitSuggestion{}, nil
}
