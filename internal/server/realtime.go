package server

import (
	"context"
	"sync"
	"time"
)

const (
	RealtimeEventValentineReceived = "valentine-received"
	realtimeEventHeartbeat         = "heartbeat"
	realtimeSourceBackend          = "lovewall-backend"
)

type RealtimeMessage struct {
	OwnerID      string
	EventType    string
	ValentineIDs []string
	Timestamp    time.Time
}

type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[string]map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

func (d *RealtimeDispatcher) Subscribe(ctx context.Context, ownerID string) (<-chan RealtimeMessage, func()) {
	if ownerID == "" {
		ch := make(chan RealtimeMessage)
		close(ch)
		return ch, func() {}
	}
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(ownerID, subscriber)
	cleanup := func() {
		d.unregisterSubscriber(ownerID, subscriber.id)
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.OwnerID == "" || message.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[message.OwnerID]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(ownerID string, subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[ownerID]; !ok {
		d.subscribers[ownerID] = make(map[int64]*realtimeSubscriber)
	}
	d.subscribers[ownerID][subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(ownerID string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[ownerID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, ownerID)
		}
	}
	d.mu.Unlock()
}
