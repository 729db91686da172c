package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/domain"
	"github.com/shaiso/Ensemble/internal/registry"
)

func newTestContext(t *testing.T, kind string) *Context {
	t.Helper()
	return NewContext(Config{
		Kind:     kind,
		Bus:      bus.New(nil),
		Registry: registry.New(),
	})
}

func doneEvent(id domain.ActionID) domain.CompletionEvent {
	return domain.CompletionEvent{Action: id, Status: domain.ActionStatusDone}
}

func errorEvent(id domain.ActionID, msg string) domain.CompletionEvent {
	return domain.CompletionEvent{Action: id, Status: domain.ActionStatusError, Error: msg}
}

// --- State Machine Tests ---

func TestContext_InitialState(t *testing.T) {
	c := newTestContext(t, "startup")

	if c.State() != domain.ContextStatePending {
		t.Errorf("expected PENDING, got %s", c.State())
	}
	if c.Kind() != "startup" {
		t.Errorf("expected kind startup, got %s", c.Kind())
	}
	if c.Failure() != "" {
		t.Errorf("expected empty failure, got %q", c.Failure())
	}
}

func TestContext_FirstCompletionStartsRunning(t *testing.T) {
	c := newTestContext(t, "startup")

	c.onStatus("", doneEvent(domain.ActionID{Module: "a", Action: "x"}))

	if c.State() != domain.ContextStateRunning {
		t.Errorf("expected RUNNING after first completion, got %s", c.State())
	}
}

func TestContext_CompletionLogGrows(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}
	y := domain.ActionID{Module: "b", Action: "y"}

	if c.Completed(x) {
		t.Error("log should start empty")
	}

	c.onStatus("", doneEvent(x))
	if !c.Completed(x) {
		t.Error("x should be in completion log")
	}
	if c.Completed(y) {
		t.Error("y should not be in completion log")
	}

	c.onStatus("", doneEvent(y))
	if !c.Completed(x) || !c.Completed(y) {
		t.Error("log should only grow")
	}

	ids := c.CompletedActions()
	if len(ids) != 2 {
		t.Errorf("expected 2 completed actions, got %d", len(ids))
	}
}

func TestContext_FailedActionNotInLog(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	c.onStatus("", errorEvent(x, "boom"))

	if c.Completed(x) {
		t.Error("failed action must not enter completion log")
	}
	if c.State() != domain.ContextStateError {
		t.Errorf("expected ERROR after action failure, got %s", c.State())
	}
	if c.Failure() == "" {
		t.Error("failure reason should be recorded")
	}
}

func TestContext_TerminalStateIsFinal(t *testing.T) {
	c := newTestContext(t, "startup")

	c.setDone()
	if c.State() != domain.ContextStateDone {
		t.Fatalf("expected DONE, got %s", c.State())
	}

	// Последующие переходы — no-op: выигрывает первый.
	c.setError("late failure")
	if c.State() != domain.ContextStateDone {
		t.Errorf("DONE must not be overwritten, got %s", c.State())
	}
	if c.Failure() != "" {
		t.Errorf("failure must stay empty, got %q", c.Failure())
	}

	c.setDone()
	if c.State() != domain.ContextStateDone {
		t.Errorf("repeated setDone must be no-op")
	}
}

func TestContext_ErrorStateIsFinal(t *testing.T) {
	c := newTestContext(t, "startup")

	c.setError("first")
	c.setError("second")
	c.setDone()

	if c.State() != domain.ContextStateError {
		t.Errorf("expected ERROR, got %s", c.State())
	}
	if c.Failure() != "first" {
		t.Errorf("first failure must win, got %q", c.Failure())
	}
}

func TestContext_CompletionAfterTerminalDiscarded(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	c.setDone()
	c.onStatus("", doneEvent(x))

	if c.Completed(x) {
		t.Error("completion after terminal state must be discarded")
	}
}

func TestContext_TeardownUnsubscribes(t *testing.T) {
	b := bus.New(nil)
	c := NewContext(Config{Kind: "startup", Bus: b, Registry: registry.New()})

	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscription after NewContext, got %d", b.SubscriberCount())
	}

	c.setDone()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscriptions after terminal state, got %d", b.SubscriberCount())
	}
}

// --- Discovery Tests ---

func TestContext_DiscoveryFirstReportWins(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	c.onDiscoveryReply("", domain.DiscoveryReply{Action: x, Phase: 1})
	c.onDiscoveryReply("", domain.DiscoveryReply{Action: x, Phase: 5})

	placed := c.snapshotPlacement()
	if placed[x] != 1 {
		t.Errorf("first report must win, got phase %d", placed[x])
	}
	if len(placed) != 1 {
		t.Errorf("expected 1 placement, got %d", len(placed))
	}
}

func TestContext_DiscoveryRejectsInvalidReplies(t *testing.T) {
	c := newTestContext(t, "startup")

	c.onDiscoveryReply("", domain.DiscoveryReply{Action: domain.ActionID{}, Phase: 1})
	c.onDiscoveryReply("", domain.DiscoveryReply{Action: domain.ActionID{Module: "a", Action: "x"}, Phase: -1})
	c.onDiscoveryReply("", "not a reply")

	if len(c.snapshotPlacement()) != 0 {
		t.Error("invalid replies must be rejected")
	}
}

func TestContext_RunFailsWithoutReplies(t *testing.T) {
	b := bus.New(nil)
	c := NewContext(Config{
		Kind:            "empty",
		Bus:             b,
		Registry:        registry.New(),
		DiscoveryWindow: 20 * time.Millisecond,
	})

	err := c.Run(context.Background())
	if !errors.Is(err, ErrDiscoveryEmpty) {
		t.Fatalf("expected ErrDiscoveryEmpty, got %v", err)
	}
	if c.State() != domain.ContextStateError {
		t.Errorf("expected ERROR, got %s", c.State())
	}
}

// --- WaitFor Tests ---

func TestContext_WaitFor_AlreadyCompleted(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	c.onStatus("", doneEvent(x))

	if err := c.WaitFor(context.Background(), x); err != nil {
		t.Errorf("WaitFor on completed action should resolve immediately: %v", err)
	}
}

func TestContext_WaitFor_NoActions(t *testing.T) {
	c := newTestContext(t, "startup")

	if err := c.WaitFor(context.Background()); err != nil {
		t.Errorf("WaitFor without actions should resolve immediately: %v", err)
	}
}

func TestContext_WaitFor_BlocksUntilCompletion(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}
	y := domain.ActionID{Module: "b", Action: "y"}

	result := make(chan error, 1)
	go func() {
		result <- c.WaitFor(context.Background(), x, y)
	}()

	// Даём горутине зарегистрироваться.
	time.Sleep(20 * time.Millisecond)

	select {
	case err := <-result:
		t.Fatalf("WaitFor resolved early: %v", err)
	default:
	}

	c.onStatus("", doneEvent(x))

	select {
	case err := <-result:
		t.Fatalf("WaitFor resolved with one of two done: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	c.onStatus("", doneEvent(y))

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not resolve")
	}
}

func TestContext_WaitFor_RejectedOnAnyFailure(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}
	unrelated := domain.ActionID{Module: "z", Action: "other"}

	result := make(chan error, 1)
	go func() {
		result <- c.WaitFor(context.Background(), x)
	}()

	time.Sleep(20 * time.Millisecond)

	// Падает не ожидаемое действие, а соседнее: ожидающие всё равно
	// отклоняются.
	c.onStatus("", errorEvent(unrelated, "boom"))

	select {
	case err := <-result:
		if !errors.Is(err, ErrDependencyFailed) {
			t.Errorf("expected ErrDependencyFailed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not resolve")
	}
}

func TestContext_WaitFor_KnownFailureRejectsImmediately(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	c.onStatus("", errorEvent(x, "boom"))

	err := c.WaitFor(context.Background(), x)
	if err == nil {
		t.Fatal("expected error for failed dependency")
	}
}

func TestContext_WaitFor_ContextCancellation(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() {
		result <- c.WaitFor(ctx, x)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not resolve on cancellation")
	}
}

// --- Watch Tests ---

func TestContext_Watch_PrefilledWhenKnown(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	c.onStatus("", doneEvent(x))

	select {
	case ev := <-c.watch(x):
		if ev.Action != x || ev.Status != domain.ActionStatusDone {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("watch for known result should be prefilled")
	}
}

func TestContext_Watch_FulfilledOnCompletion(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	ch := c.watch(x)
	c.onStatus("", doneEvent(x))

	select {
	case ev := <-ch:
		if ev.Action != x {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("watch was not fulfilled")
	}
}

// --- Record Tests ---

func TestContext_Record(t *testing.T) {
	c := newTestContext(t, "startup")
	x := domain.ActionID{Module: "a", Action: "x"}

	c.onDiscoveryReply("", domain.DiscoveryReply{Action: x, Phase: 1})
	c.onStatus("", doneEvent(x))
	c.setDone()

	rec := c.Record()
	if rec.ID != c.ID() {
		t.Error("record should carry context id")
	}
	if rec.Kind != "startup" {
		t.Errorf("expected kind startup, got %s", rec.Kind)
	}
	if rec.State != domain.ContextStateDone {
		t.Errorf("expected DONE, got %s", rec.State)
	}
	if rec.Discovered != 1 {
		t.Errorf("expected 1 discovered, got %d", rec.Discovered)
	}
	if len(rec.Completed) != 1 || rec.Completed[0] != x {
		t.Errorf("unexpected completed log: %v", rec.Completed)
	}
	if rec.FinishedAt.IsZero() {
		t.Error("finished timestamp should be set")
	}
	if rec.Duration() < 0 {
		t.Error("duration should be non-negative")
	}
}
