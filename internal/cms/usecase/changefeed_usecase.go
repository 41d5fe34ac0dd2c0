package usecase

import (
	"context"
	"sync"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/shared/eventbus"
	"studio-cms/internal/shared/logger"
)

// ChangeFeedUsecase fans collection change events out to live subscribers.
type ChangeFeedUsecase interface {
	// Subscribe registers ch for events on the given collections; none means all.
	// The subscriber owns ch and closes it after Unsubscribe.
	Subscribe(ctx context.Context, subscriberID string, collections []string, ch chan<- model.ChangeEvent)
	Unsubscribe(ctx context.Context, subscriberID string)
	Publish(ctx context.Context, event model.ChangeEvent)
	SubscriberCount() int
}

type subscription struct {
	collections map[string]bool
	ch          chan<- model.ChangeEvent
}

type changeFeedUsecase struct {
	mu          sync.RWMutex
	subscribers map[string]subscription
	log         logger.Logger
}

// NewChangeFeedUsecase creates the feed and, when bus is set, forwards every
// collection change published on it.
func NewChangeFeedUsecase(bus eventbus.EventBusInterface, log logger.Logger) ChangeFeedUsecase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &changeFeedUsecase{
		subscribers: make(map[string]subscription),
		log:         log.WithComponent("changefeed"),
	}
	if bus != nil {
		bus.Subscribe(eventbus.EventTypeCollectionChanged, func(ctx context.Context, event eventbus.Event) error {
			if change, ok := event.Data().(model.ChangeEvent); ok {
				uc.Publish(ctx, change)
			}
			return nil
		})
	}
	return uc
}

func (uc *changeFeedUsecase) Subscribe(ctx context.Context, subscriberID string, collections []string, ch chan<- model.ChangeEvent) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	filter := make(map[string]bool, len(collections))
	for _, c := range collections {
		filter[c] = true
	}
	if _, ok := uc.subscribers[subscriberID]; ok {
		uc.log.WithContext(ctx).Warnf("Subscriber %s already registered, replacing", subscriberID)
	}
	uc.subscribers[subscriberID] = subscription{collections: filter, ch: ch}
	uc.log.WithContext(ctx).Debugf("Subscriber %s joined (%d collections)", subscriberID, len(filter))
}

func (uc *changeFeedUsecase) Unsubscribe(ctx context.Context, subscriberID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.subscribers[subscriberID]; !ok {
		return
	}
	delete(uc.subscribers, subscriberID)
	uc.log.WithContext(ctx).Debugf("Subscriber %s left", subscriberID)
}

// Publish delivers without blocking; a full subscriber channel drops the event.
func (uc *changeFeedUsecase) Publish(ctx context.Context, event model.ChangeEvent) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	for id, sub := range uc.subscribers {
		if len(sub.collections) > 0 && !sub.collections[event.Collection] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			uc.log.WithContext(ctx).Warnf("Dropped %s event for slow subscriber %s", event.Collection, id)
		}
	}
}

func (uc *changeFeedUsecase) SubscriberCount() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.subscribers)
}
