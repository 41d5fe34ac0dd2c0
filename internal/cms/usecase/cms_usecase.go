package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/cms/domain/repository"
	"studio-cms/internal/shared/errors"
	"studio-cms/internal/shared/eventbus"
	"studio-cms/internal/shared/logger"
	"studio-cms/internal/shared/metrics"
)

// ContentUsecase is the CRUD contract over the four content collections.
type ContentUsecase interface {
	List(ctx context.Context, collection string) ([]model.Document, error)
	Create(ctx context.Context, collection string, fields model.Document) (model.Document, error)
	Update(ctx context.Context, collection string, rawID string, fields model.Document) (model.Document, error)
	Delete(ctx context.Context, collection string, rawID string) error

	GetSettings(ctx context.Context) (model.Document, error)
	PutSettings(ctx context.Context, settings model.Document) (model.Document, error)

	ListPages(ctx context.Context) (model.Document, error)
	GetPage(ctx context.Context, name string) (interface{}, error)
	PutPage(ctx context.Context, name string, page model.Document) (model.Document, error)
}

// TaxonomyUsecase manages the tags kept in settings.taxonomy.
type TaxonomyUsecase interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, input CreateTagInput) (*model.Tag, error)
	UpdateTag(ctx context.Context, id string, input UpdateTagInput) (*model.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	MergeTags(ctx context.Context, sourceID, targetID string) (*model.Tag, error)
	RebuildTaxonomy(ctx context.Context) (*RebuildResult, error)
	TaxonomyReport(ctx context.Context) ([]model.TagSplitSuggestion, error)
}

// CMSUsecase implements ContentUsecase and TaxonomyUsecase on top of a Store.
// Each read-modify-write runs under the lock of the collections it touches.
type CMSUsecase struct {
	store   repository.Store
	locks   *collectionLocks
	bus     eventbus.EventBusInterface
	metrics *metrics.Collector
	logger  logger.Logger
	now     func() time.Time
}

var (
	_ ContentUsecase  = (*CMSUsecase)(nil)
	_ TaxonomyUsecase = (*CMSUsecase)(nil)
)

// Option configures a CMSUsecase
type Option func(*CMSUsecase)

// WithClock replaces time.Now for id generation
func WithClock(now func() time.Time) Option {
	return func(uc *CMSUsecase) { uc.now = now }
}

// WithEventBus publishes a change event after every write
func WithEventBus(bus eventbus.EventBusInterface) Option {
	return func(uc *CMSUsecase) { uc.bus = bus }
}

// WithMetrics counts mutations
func WithMetrics(m *metrics.Collector) Option {
	return func(uc *CMSUsecase) { uc.metrics = m }
}

// NewCMSUsecase creates the content usecase
func NewCMSUsecase(store repository.Store, log logger.Logger, opts ...Option) *CMSUsecase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &CMSUsecase{
		store:  store,
		locks:  newCollectionLocks(),
		logger: log.WithComponent("cms"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Backend names the storage backend in use
func (uc *CMSUsecase) Backend() string {
	return uc.store.Backend()
}

func (uc *CMSUsecase) loadSequence(ctx context.Context, collection string) ([]model.Document, error) {
	docs, err := model.DecodeDocuments(uc.read(ctx, collection))
	if err != nil {
		uc.logger.WithContext(ctx).Errorf("Failed to decode %s: %v", collection, err)
		return nil, decodeError(collection, err)
	}
	return docs, nil
}

func (uc *CMSUsecase) loadMapping(ctx context.Context, collection string) (model.Document, error) {
	doc, err := model.DecodeDocument(uc.read(ctx, collection))
	if err != nil {
		uc.logger.WithContext(ctx).Errorf("Failed to decode %s: %v", collection, err)
		return nil, decodeError(collection, err)
	}
	return doc, nil
}

// read returns the stored value, or the collection's empty default when
// nothing is stored.
func (uc *CMSUsecase) read(ctx context.Context, collection string) json.RawMessage {
	if raw := uc.store.Read(ctx, collection); raw != nil {
		return raw
	}
	return model.EmptyDefault(collection)
}

// decodeError surfaces a stored value of the wrong shape as a 500 carrying the
// raw decode message once.
func decodeError(collection string, err error) *errors.AppError {
	return errors.NewInternalError(err.Error()).
		WithComponent("cms").
		WithDetail("collection", collection)
}

func (uc *CMSUsecase) save(ctx context.Context, collection string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError(fmt.Sprintf("failed to encode %s: %v", collection, err)).WithDetail("collection", collection)
	}
	uc.store.Write(ctx, collection, data)
	return nil
}

// changed records and announces a successful write
func (uc *CMSUsecase) changed(ctx context.Context, collection string, change model.ChangeType, id string) {
	uc.metrics.RecordMutation(collection, string(change))
	if uc.bus == nil {
		return
	}
	event := model.ChangeEvent{
		Type:       change,
		Collection: collection,
		ID:         id,
		Timestamp:  uc.now().UTC(),
	}
	// Published inline so subscribers see changes in write order.
	if err := uc.bus.Publish(ctx, eventbus.NewBasicEventWithSource(eventbus.EventTypeCollectionChanged, event, "cms")); err != nil {
		uc.logger.WithContext(ctx).Warnf("Failed to publish %s change: %v", collection, err)
	}
}

func checkSequence(collection string) error {
	if !model.IsSequence(collection) {
		return errors.NewValidationError(fmt.Sprintf("unknown collection %q", collection))
	}
	return nil
}
