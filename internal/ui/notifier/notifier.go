// Package notifier provides a simple broadcast mechanism for SSE updates.
package notifier

import "sync"

// ThemeTopic is pinged when templates or theme assets change on disk.
const ThemeTopic = "theme"

// Notifier pings subscribed listeners when something they display changed.
// Listeners subscribe to a topic (a view id or ThemeTopic) and receive an
// empty struct; they should re-query the store and re-render.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]string
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]string),
	}
}

// Subscribe returns a channel that receives pings for topic.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(topic string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = topic
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Publish pings the listeners of topic.
func (n *Notifier) Publish(topic string) {
	n.notify(func(t string) bool { return t == topic })
}

// Broadcast pings every listener.
func (n *Notifier) Broadcast() {
	n.notify(func(string) bool { return true })
}

// notify is non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier) notify(match func(topic string) bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch, topic := range n.listeners {
		if !match(topic) {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, skip (listener will catch up on next ping)
		}
	}
}

// Len returns the number of subscribed listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
