package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"seta-admin-backend/internal/model"
)

// Level is the severity a toast is rendered with.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is a short message about one collection shown to every dashboard
// subscribed to it.
type Toast struct {
	Collection string `json:"collection"`
	Level      Level  `json:"level"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

// SubscriptionStore is the part of the store the workers need.
type SubscriptionStore interface {
	SubscriptionsFor(ctx context.Context, collection string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers toasts through web push on a fixed number of workers.
type WorkerPool struct {
	size    int
	jobs    chan Toast
	store   SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.SugaredLogger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, store SubscriptionStore, webpushOptions *webpush.Options, log *zap.SugaredLogger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Toast, size*16),
		store:   store,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.Named("notification"),
	}
}

// Start launches the worker goroutines. They exit when ctx is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debugw("worker started", "worker", id)
	for {
		select {
		case toast := <-wp.jobs:
			wp.deliver(ctx, toast)
		case <-ctx.Done():
			wp.log.Debugw("worker shutting down", "worker", id)
			return
		}
	}
}

// Dispatch queues a toast without blocking. It returns false when the queue
// is full and the toast was dropped.
func (wp *WorkerPool) Dispatch(t Toast) bool {
	select {
	case wp.jobs <- t:
		return true
	default:
		wp.log.Warnw("notification queue full, dropping toast", "collection", t.Collection, "title", t.Title)
		return false
	}
}

func (wp *WorkerPool) deliver(ctx context.Context, t Toast) {
	subs, err := wp.store.SubscriptionsFor(ctx, t.Collection)
	if err != nil {
		wp.log.Errorw("failed to load subscriptions", "collection", t.Collection, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(t)
	if err != nil {
		wp.log.Errorw("failed to encode toast", "error", err)
		return
	}

	wp.log.Infow("sending toast", "collection", t.Collection, "level", t.Level, "subscribers", len(subs))
	for _, sub := range subs {
		wp.send(ctx, sub, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warnw("failed to send toast", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Infow("subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Errorw("failed to delete expired subscription", "endpoint", sub.Endpoint, "error", err)
		}
	}
}
