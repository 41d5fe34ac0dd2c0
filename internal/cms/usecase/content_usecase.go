package usecase

import (
	"context"
	"reflect"
	"strconv"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/shared/errors"
)

// List returns the whole sequence collection, or an empty one.
func (uc *CMSUsecase) List(ctx context.Context, collection string) ([]model.Document, error) {
	if err := checkSequence(collection); err != nil {
		return nil, err
	}
	return uc.loadSequence(ctx, collection)
}

// Create appends a record with a fresh id. A caller-supplied id is ignored.
func (uc *CMSUsecase) Create(ctx context.Context, collection string, fields model.Document) (model.Document, error) {
	if err := checkSequence(collection); err != nil {
		return nil, err
	}
	unlock := uc.lock(collection)
	defer unlock()

	docs, err := uc.loadSequence(ctx, collection)
	if err != nil {
		return nil, err
	}

	record := model.Document{}.Merge(fields)
	id := uc.nextID(docs)
	record.SetID(id)
	normalize(collection, record)

	docs = append(docs, record)
	if err := uc.save(ctx, collection, docs); err != nil {
		return nil, err
	}
	if collection == model.CollectionProjects {
		uc.recountAfterProjectChange(ctx, docs)
	}

	uc.logger.WithContext(ctx).Infof("Created %s record %d", collection, id)
	uc.changed(ctx, collection, model.ChangeCreated, strconv.FormatInt(id, 10))
	return record, nil
}

// Update merges fields over the record whose id matches rawID. The id always
// comes from rawID, never from fields.
func (uc *CMSUsecase) Update(ctx context.Context, collection string, rawID string, fields model.Document) (model.Document, error) {
	if err := checkSequence(collection); err != nil {
		return nil, err
	}
	notFound := errors.NewNotFoundError(model.NotFoundResource(collection))

	id, ok := model.ParseID(rawID)
	if !ok {
		return nil, notFound
	}

	unlock := uc.lock(collection)
	defer unlock()

	docs, err := uc.loadSequence(ctx, collection)
	if err != nil {
		return nil, err
	}

	index := indexOf(docs, id)
	if index < 0 {
		return nil, notFound
	}

	record := docs[index].Merge(fields)
	normalize(collection, record)
	record.SetID(id)
	docs[index] = record

	if err := uc.save(ctx, collection, docs); err != nil {
		return nil, err
	}
	if collection == model.CollectionProjects {
		uc.recountAfterProjectChange(ctx, docs)
	}

	uc.changed(ctx, collection, model.ChangeUpdated, strconv.FormatInt(id, 10))
	return record, nil
}

// Delete removes every record with the id. Unknown or malformed ids succeed
// without writing anything.
func (uc *CMSUsecase) Delete(ctx context.Context, collection string, rawID string) error {
	if err := checkSequence(collection); err != nil {
		return err
	}
	id, ok := model.ParseID(rawID)
	if !ok {
		return nil
	}

	unlock := uc.lock(collection)
	defer unlock()

	docs, err := uc.loadSequence(ctx, collection)
	if err != nil {
		return err
	}

	kept := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if existing, ok := d.ID(); ok && existing == id {
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) == len(docs) {
		return nil
	}

	if err := uc.save(ctx, collection, kept); err != nil {
		return err
	}
	if collection == model.CollectionProjects {
		uc.recountAfterProjectChange(ctx, kept)
	}

	uc.changed(ctx, collection, model.ChangeDeleted, strconv.FormatInt(id, 10))
	return nil
}

// GetSettings returns the settings document
func (uc *CMSUsecase) GetSettings(ctx context.Context) (model.Document, error) {
	return uc.loadMapping(ctx, model.CollectionSettings)
}

// PutSettings replaces the whole settings document
func (uc *CMSUsecase) PutSettings(ctx context.Context, settings model.Document) (model.Document, error) {
	if settings == nil {
		settings = model.Document{}
	}
	unlock := uc.lock(model.CollectionSettings)
	defer unlock()

	if err := uc.save(ctx, model.CollectionSettings, settings); err != nil {
		return nil, err
	}
	uc.changed(ctx, model.CollectionSettings, model.ChangeReplaced, "")
	return settings, nil
}

// ListPages returns every page keyed by name
func (uc *CMSUsecase) ListPages(ctx context.Context) (model.Document, error) {
	return uc.loadMapping(ctx, model.CollectionPages)
}

// GetPage returns the named page, or an empty object
func (uc *CMSUsecase) GetPage(ctx context.Context, name string) (interface{}, error) {
	pages, err := uc.loadMapping(ctx, model.CollectionPages)
	if err != nil {
		return nil, err
	}
	page, ok := pages[name]
	if !ok || page == nil {
		return model.Document{}, nil
	}
	return page, nil
}

// PutPage replaces the named page
func (uc *CMSUsecase) PutPage(ctx context.Context, name string, page model.Document) (model.Document, error) {
	if page == nil {
		page = model.Document{}
	}
	unlock := uc.lock(model.CollectionPages)
	defer unlock()

	pages, err := uc.loadMapping(ctx, model.CollectionPages)
	if err != nil {
		return nil, err
	}
	pages[name] = page

	if err := uc.save(ctx, model.CollectionPages, pages); err != nil {
		return nil, err
	}
	uc.changed(ctx, model.CollectionPages, model.ChangeReplaced, name)
	return page, nil
}

// lock takes the collection lock. Project writes also recount tag usage in
// settings, so they hold the settings lock as well.
func (uc *CMSUsecase) lock(collection string) func() {
	if collection == model.CollectionProjects {
		return uc.locks.lock(model.CollectionProjects, model.CollectionSettings)
	}
	return uc.locks.lock(collection)
}

// nextID derives an id from the clock, bumped past the largest existing id
// so ids stay unique when the clock has not advanced.
func (uc *CMSUsecase) nextID(docs []model.Document) int64 {
	id := uc.now().UnixMilli()
	for _, d := range docs {
		if existing, ok := d.ID(); ok && existing >= id {
			id = existing + 1
		}
	}
	return id
}

// recountAfterProjectChange refreshes settings.taxonomy usage counts. The
// caller holds the projects and settings locks. Settings without a taxonomy
// are left alone.
func (uc *CMSUsecase) recountAfterProjectChange(ctx context.Context, projects []model.Document) {
	settings, err := uc.loadMapping(ctx, model.CollectionSettings)
	if err != nil {
		uc.logger.WithContext(ctx).Warnf("Skipping usage recount: %v", err)
		return
	}
	if _, ok := settings[model.FieldTaxonomy]; !ok {
		return
	}
	tags, err := model.TagsFromSettings(settings)
	if err != nil {
		uc.logger.WithContext(ctx).Warnf("Skipping usage recount: %v", err)
		return
	}
	before := make([]int, len(tags))
	for i, t := range tags {
		before[i] = t.UsageCount
	}
	model.RecountUsage(tags, projects)

	after := make([]int, len(tags))
	for i, t := range tags {
		after[i] = t.UsageCount
	}
	if reflect.DeepEqual(before, after) {
		return
	}

	model.SetTags(settings, tags)
	if err := uc.save(ctx, model.CollectionSettings, settings); err != nil {
		uc.logger.WithContext(ctx).Warnf("Failed to save usage counts: %v", err)
		return
	}
	uc.changed(ctx, model.CollectionSettings, model.ChangeUpdated, "")
}

func normalize(collection string, record model.Document) {
	if collection == model.CollectionProjects {
		model.NormalizeServices(record)
	}
}

func indexOf(docs []model.Document, id int64) int {
	for i, d := range docs {
		if existing, ok := d.ID(); ok && existing == id {
			return i
		}
	}
	return -1
}
