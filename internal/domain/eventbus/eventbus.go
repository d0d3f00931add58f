package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus carries upload lifecycle events to in-process subscribers.
type Bus struct {
	bus evbus.Bus
}

// New 创建新的事件总线
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish 发布同步事件. A nil Bus drops the event.
func (b *Bus) Publish(topic string, data UploadEventData) {
	if b == nil {
		return
	}
	b.bus.Publish(topic, data)
}

// Subscribe runs fn on the publishing goroutine.
func (b *Bus) Subscribe(topic string, fn func(UploadEventData)) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync runs fn on its own goroutine per event.
func (b *Bus) SubscribeAsync(topic string, fn func(UploadEventData)) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// Wait blocks until asynchronous handlers have drained.
func (b *Bus) Wait() {
	if b == nil {
		return
	}
	b.bus.WaitAsync()
}
