// bus.go
package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

// Token is a single element in a topic path. Strings and small integers are
// the expected kinds; any comparable value works as a trie key.
type Token = any

// Topic is a sequence of tokens, e.g. T("dimmer", "value").
type Topic []Token

// T builds a topic from its tokens.
func T(parts ...Token) Topic { return Topic(parts) }

// Equal reports whether two topics match token for token.
func (t Topic) Equal(o Topic) bool {
	if len(t) != len(o) {
		return false
	}
	for i := range t {
		if t[i] != o[i] {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu       sync.RWMutex
	root     *node
	qLen     int
	replySeq uint32
}

// NewBus creates a new bus with the given per-subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range topic {
		if n.children == nil {
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}

	n.subs = append(n.subs, sub)

	// Deliver retained message if present.
	if n.retained != nil {
		select {
		case sub.ch <- n.retained:
		default:
		}
	}
}

// Publish delivers a message to all subscribers of its topic.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range msg.Topic {
		if n.children == nil {
			if !msg.Retained {
				return
			}
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			if !msg.Retained {
				return
			}
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}

	for _, sub := range n.subs {
		select {
		case sub.ch <- msg:
		default:
			// drop oldest if queue full
			<-sub.ch
			sub.ch <- msg
		}
	}

	// Store or clear retained message.
	if msg.Retained {
		if msg.Payload == nil {
			n.retained = nil
		} else {
			n.retained = msg
		}
	}
}

func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, tok := range topic {
		if n.children == nil {
			return
		}
		child, ok := n.children[tok]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	// Prune empty nodes.
	for i := len(topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

// NewMessage builds a message for Publish.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}

// -----------------------------------------------------------------------------
// Request / reply
// -----------------------------------------------------------------------------

// ErrNoReplyTo is returned by Reply for messages published without a ReplyTo.
var ErrNoReplyTo = errors.New("message has no reply topic")

// Reply publishes a response on the request's ReplyTo topic.
func (c *Connection) Reply(req *Message, payload any, retained bool) error {
	if len(req.ReplyTo) == 0 {
		return ErrNoReplyTo
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
	return nil
}

// RequestWait publishes msg with a private ReplyTo topic and blocks until a
// reply arrives or ctx is done.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	seq := atomic.AddUint32(&c.bus.replySeq, 1)
	msg.ReplyTo = T("reply", c.id, int(seq))
	sub := c.Subscribe(msg.ReplyTo)
	defer c.Unsubscribe(sub)

	c.bus.Publish(msg)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-sub.ch:
		return r, nil
	}
}
