package websocket

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var knownEntities = map[EntityType]bool{
	EntityTypeTransaction:     true,
	EntityTypeRecurring:       true,
	EntityTypeMaterialization: true,
	EntityTypeBill:            true,
}

// Subscription actions a client can send over the socket
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// SubscriptionRequest is the inbound message that changes which entities a
// client receives, e.g. {"action":"subscribe","entities":["bill"]}
type SubscriptionRequest struct {
	Action   string       `json:"action"`
	Entities []EntityType `json:"entities"`
}

// ParseEntities parses a comma separated entity list such as
// "transaction,bill". An empty string yields no entities.
func ParseEntities(raw string) ([]EntityType, error) {
	var entities []EntityType
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		entity := EntityType(part)
		if !knownEntities[entity] {
			return nil, fmt.Errorf("unknown entity %q", part)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// Subscription is the set of entities a client wants. Safe for concurrent use.
type Subscription struct {
	mu       sync.RWMutex
	entities map[EntityType]bool
}

// NewSubscription starts a subscription limited to entities, or to every
// entity when none are given
func NewSubscription(entities []EntityType) *Subscription {
	s := &Subscription{entities: make(map[EntityType]bool)}
	if len(entities) == 0 {
		for e := range knownEntities {
			s.entities[e] = true
		}
		return s
	}
	for _, e := range entities {
		s.entities[e] = true
	}
	return s
}

// Wants reports whether events about entity should be delivered
func (s *Subscription) Wants(entity EntityType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities[entity]
}

// Entities returns the subscribed entities, sorted
func (s *Subscription) Entities() []EntityType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EntityType, 0, len(s.entities))
	for e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply decodes a SubscriptionRequest and updates the set
func (s *Subscription) Apply(raw []byte) error {
	var req SubscriptionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("decode subscription request: %w", err)
	}
	for _, e := range req.Entities {
		if !knownEntities[e] {
			return fmt.Errorf("unknown entity %q", e)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.Action {
	case ActionSubscribe:
		for _, e := range req.Entities {
			s.entities[e] = true
		}
	case ActionUnsubscribe:
		for _, e := range req.Entities {
			delete(s.entities, e)
		}
	default:
		return fmt.Errorf("unknown action %q", req.Action)
	}
	return nil
}

// SubscriptionAck is sent back after every SubscriptionRequest
type SubscriptionAck struct {
	Type     string       `json:"type"`
	Entities []EntityType `json:"entities"`
	Error    string       `json:"error,omitempty"`
}

func newSubscriptionAck(entities []EntityType, err error) []byte {
	ack := SubscriptionAck{Type: "subscription.updated", Entities: entities}
	if err != nil {
		ack.Type = "subscription.rejected"
		ack.Error = err.Error()
	}
	data, _ := json.Marshal(ack)
	return data
}
