package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Ensemble/internal/domain"
)

// --- Topic Matching Tests ---

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		topic   string
		want    bool
	}{
		{"exact match", "/context/startup/abc/rfa", "/context/startup/abc/rfa", true},
		{"exact mismatch", "/context/startup/abc/rfa", "/context/startup/xyz/rfa", false},
		{"wildcard one segment", "/context/startup/*/rfa", "/context/startup/abc/rfa", true},
		{"wildcard wrong suffix", "/context/startup/*/rfa", "/context/startup/abc/ith", false},
		{"wildcard wrong kind", "/context/startup/*/rfa", "/context/shutdown/abc/rfa", false},
		{"wildcard middle", "/context/*/status", "/context/abc/status", true},
		{"too few segments", "/context/*/status", "/context/status", false},
		{"too many segments", "/context/*/status", "/context/abc/def/status", false},
		{"wildcard matches only one segment", "/context/*/rfa", "/context/startup/abc/rfa", false},
		{"all wildcards", "/*/*/*", "/a/b/c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchTopic(splitTopic(tt.pattern), splitTopic(tt.topic))
			if got != tt.want {
				t.Errorf("matchTopic(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
			}
		})
	}
}

func TestSplitTopic(t *testing.T) {
	segments := splitTopic("/context/startup/rfa")
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0] != "context" || segments[1] != "startup" || segments[2] != "rfa" {
		t.Errorf("unexpected segments: %v", segments)
	}
}

// --- Bus Tests ---

func TestBus_PublishSubscribe(t *testing.T) {
	b := New(nil)

	received := make(chan any, 1)
	b.Subscribe("/test/topic", func(_ string, payload any) {
		received <- payload
	})

	b.Publish("/test/topic", "hello")

	select {
	case got := <-received:
		if got != "hello" {
			t.Errorf("expected %q, got %v", "hello", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive message")
	}
}

func TestBus_WildcardSubscription(t *testing.T) {
	b := New(nil)

	received := make(chan string, 2)
	b.Subscribe("/context/*/status", func(topic string, _ any) {
		received <- topic
	})

	b.Publish("/context/one/status", nil)
	b.Publish("/context/two/status", nil)
	b.Publish("/context/one/ith", nil) // не совпадает

	got := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case topic := <-received:
			got[topic] = true
		case <-time.After(time.Second):
			t.Fatal("expected 2 deliveries")
		}
	}

	if !got["/context/one/status"] || !got["/context/two/status"] {
		t.Errorf("unexpected topics: %v", got)
	}

	select {
	case topic := <-received:
		t.Errorf("unexpected delivery for %s", topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_NoMatchingSubscriber(t *testing.T) {
	b := New(nil)

	// Публикация без подписчиков не должна паниковать или блокировать.
	b.Publish("/nobody/listens", "payload")
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New(nil)

	received := make(chan any, 1)
	sub := b.Subscribe("/test/topic", func(_ string, payload any) {
		received <- payload
	})

	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	b.Unsubscribe(sub)

	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.SubscriberCount())
	}

	b.Publish("/test/topic", "hello")

	select {
	case <-received:
		t.Error("unsubscribed handler should not receive messages")
	case <-time.After(50 * time.Millisecond):
	}

	// Повторный Unsubscribe — no-op.
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
}

func TestBus_MultipleSubscribers(t *testing.T) {
	b := New(nil)

	var mu sync.Mutex
	count := 0
	done := make(chan struct{}, 3)

	for i := 0; i < 3; i++ {
		b.Subscribe("/fan/out", func(_ string, _ any) {
			mu.Lock()
			count++
			mu.Unlock()
			done <- struct{}{}
		})
	}

	b.Publish("/fan/out", nil)

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("expected 3 deliveries")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 3 {
		t.Errorf("expected 3 deliveries, got %d", count)
	}
}

// --- Topic Builder Tests ---

func TestTopicBuilders(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	action := domain.ActionID{Module: "db", Action: "connect"}

	if got := TopicRFA("startup", id); got != "/context/startup/11111111-2222-3333-4444-555555555555/rfa" {
		t.Errorf("TopicRFA = %s", got)
	}
	if got := TopicITH(id); got != "/context/11111111-2222-3333-4444-555555555555/ith" {
		t.Errorf("TopicITH = %s", got)
	}
	if got := TopicExecute(action); got != "/context/execute/db/connect" {
		t.Errorf("TopicExecute = %s", got)
	}
	if got := TopicStatus(id); got != "/context/11111111-2222-3333-4444-555555555555/status" {
		t.Errorf("TopicStatus = %s", got)
	}
}

func TestTopicPatterns_MatchBuilders(t *testing.T) {
	id := uuid.New()

	if !matchTopic(splitTopic(TopicRFAPattern("startup")), splitTopic(TopicRFA("startup", id))) {
		t.Error("RFA pattern should match RFA topic of same kind")
	}
	if matchTopic(splitTopic(TopicRFAPattern("shutdown")), splitTopic(TopicRFA("startup", id))) {
		t.Error("RFA pattern should not match RFA topic of other kind")
	}
	if !matchTopic(splitTopic(TopicStatusPattern()), splitTopic(TopicStatus(id))) {
		t.Error("status pattern should match status topic")
	}
}
