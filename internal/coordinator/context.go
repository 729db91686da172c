package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Ensemble/internal/bus"
	"github.com/shaiso/Ensemble/internal/domain"
	"github.com/shaiso/Ensemble/internal/registry"
)

// DefaultDiscoveryWindow — окно сбора discovery ответов.
//
// Настраиваемая константа, а не SLA: ограничивает латентность
// discovery ценой возможной потери медленных участников.
const DefaultDiscoveryWindow = 50 * time.Millisecond

// Config — конфигурация Context.
type Config struct {
	// Kind — тип контекста (вид раунда).
	Kind string

	// Bus — шина сообщений.
	Bus *bus.Bus

	// Registry — реестр дескрипторов действий.
	Registry *registry.Registry

	// DiscoveryWindow — окно сбора ответов (default: 50ms).
	DiscoveryWindow time.Duration

	// Logger
	Logger *slog.Logger
}

// Context — координатор одного раунда выполнения.
//
// Живёт ровно один раунд: создаётся внешним триггером (HTTP запрос,
// расписание, init процесса), проводит discovery, валидацию и
// выполнение фаз, становится финальным (DONE/ERROR) и отбрасывается.
// Никогда не переиспользуется и не сбрасывается.
type Context struct {
	id        uuid.UUID
	kind      string
	createdAt time.Time

	bus      *bus.Bus
	registry *registry.Registry
	window   time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	state      domain.ContextState
	failure    string
	finishedAt time.Time

	// completed — журнал завершений (только растёт в течение раунда).
	completed map[domain.ActionID]bool

	// placed — карта фаз: действие → фаза (выигрывает первый ответ).
	placed map[domain.ActionID]int

	// results — полученные события завершения по действиям.
	results map[domain.ActionID]domain.CompletionEvent

	// watchers — одноразовые каналы Runner'а, ключ — конкретное действие.
	watchers map[domain.ActionID][]chan domain.CompletionEvent

	// waiters — ожидающие WaitFor.
	waiters map[*waiter]struct{}

	// failedCh закрывается при переходе в ERROR: Runner перестаёт
	// ожидать результаты уже разосланной фазы.
	failedCh chan struct{}

	// statusSub — внутренний слушатель событий завершения.
	// Снимается при переходе в финальное состояние.
	statusSub *bus.Subscription

	// discoverySub — подписка на ITH ответы.
	// Снимается при закрытии окна сбора.
	discoverySub *bus.Subscription
}

// waiter — один вызов WaitFor в ожидании набора действий.
type waiter struct {
	pending map[domain.ActionID]bool
	ch      chan error
}

// NewContext создаёт Context для одного раунда.
//
// Внутренний слушатель событий завершения устанавливается сразу,
// до любых публикаций.
func NewContext(cfg Config) *Context {
	window := cfg.DiscoveryWindow
	if window <= 0 {
		window = DefaultDiscoveryWindow
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Context{
		id:        uuid.New(),
		kind:      cfg.Kind,
		createdAt: time.Now(),
		bus:       cfg.Bus,
		registry:  cfg.Registry,
		window:    window,
		state:     domain.ContextStatePending,
		completed: make(map[domain.ActionID]bool),
		placed:    make(map[domain.ActionID]int),
		results:   make(map[domain.ActionID]domain.CompletionEvent),
		watchers:  make(map[domain.ActionID][]chan domain.CompletionEvent),
		waiters:   make(map[*waiter]struct{}),
		failedCh:  make(chan struct{}),
	}
	c.logger = logger.With("context_id", c.id, "kind", c.kind)

	c.statusSub = c.bus.Subscribe(bus.TopicStatus(c.id), c.onStatus)

	return c
}

// ID возвращает уникальный идентификатор раунда.
func (c *Context) ID() uuid.UUID {
	return c.id
}

// Kind возвращает тип контекста.
func (c *Context) Kind() string {
	return c.kind
}

// State возвращает текущее состояние.
func (c *Context) State() domain.ContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failure возвращает текст ошибки раунда (пусто, если ошибки нет).
func (c *Context) Failure() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Completed возвращает true, если действие уже в журнале завершений.
func (c *Context) Completed(id domain.ActionID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed[id]
}

// CompletedActions возвращает журнал завершений, отсортированный
// по идентификатору.
func (c *Context) CompletedActions() []domain.ActionID {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]domain.ActionID, 0, len(c.completed))
	for id := range c.completed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// Record возвращает запись о раунде для истории.
// Имеет смысл только после того, как контекст стал финальным.
func (c *Context) Record() domain.ContextRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]domain.ActionID, 0, len(c.completed))
	for id := range c.completed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	return domain.ContextRecord{
		ID:         c.id,
		Kind:       c.kind,
		State:      c.state,
		Discovered: len(c.placed),
		Completed:  ids,
		Error:      c.failure,
		StartedAt:  c.createdAt,
		FinishedAt: c.finishedAt,
	}
}

// Run проводит раунд: discovery → валидация → выполнение фаз.
//
// Возвращает nil, если раунд завершился DONE, и ошибку, если ERROR.
// Контекст после возврата финален в любом случае.
func (c *Context) Run(ctx context.Context) error {
	c.logger.Info("round started", "window", c.window)

	if err := c.discover(ctx); err != nil {
		return err
	}

	placed := c.snapshotPlacement()

	if err := validatePhases(placed, c.registry); err != nil {
		c.setError(err.Error())
		c.logger.Warn("phase validation failed", "error", err)
		return err
	}

	c.logger.Debug("phase map validated", "actions", len(placed))

	return c.runPhases(ctx)
}

// discover рассылает RFA и собирает ITH ответы в течение окна.
func (c *Context) discover(ctx context.Context) error {
	c.discoverySub = c.bus.Subscribe(bus.TopicITH(c.id), c.onDiscoveryReply)

	c.bus.Publish(bus.TopicRFA(c.kind, c.id), domain.DiscoveryRequest{
		ContextID:   c.id,
		ContextKind: c.kind,
	})

	select {
	case <-ctx.Done():
		c.bus.Unsubscribe(c.discoverySub)
		c.setError(ctx.Err().Error())
		return ctx.Err()
	case <-time.After(c.window):
	}

	// Окно закрыто: подписка снимается, опоздавшие ответы игнорируются.
	c.bus.Unsubscribe(c.discoverySub)

	c.mu.Lock()
	replies := len(c.placed)
	c.mu.Unlock()

	if replies == 0 {
		c.setError(ErrDiscoveryEmpty.Error())
		c.logger.Warn("discovery returned no replies")
		return ErrDiscoveryEmpty
	}

	c.logger.Debug("discovery complete", "replies", replies)
	return nil
}

// onDiscoveryReply обрабатывает один ITH ответ.
//
// Дубликаты (в т.ч. с другой фазой) игнорируются: выигрывает
// первый ответ. Отрицательная фаза отбрасывается.
func (c *Context) onDiscoveryReply(_ string, payload any) {
	reply, ok := payload.(domain.DiscoveryReply)
	if !ok {
		c.logger.Warn("unexpected discovery reply payload", "payload", payload)
		return
	}

	if reply.Action.IsZero() {
		c.logger.Warn("discovery reply with empty action id")
		return
	}
	if reply.Phase < 0 {
		c.logger.Warn("discovery reply with negative phase",
			"action", reply.Action, "phase", reply.Phase)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, exists := c.placed[reply.Action]; exists {
		c.logger.Debug("duplicate discovery reply ignored",
			"action", reply.Action, "phase", reply.Phase, "kept_phase", prev)
		return
	}

	c.placed[reply.Action] = reply.Phase
}

// snapshotPlacement возвращает копию карты размещения action → phase.
func (c *Context) snapshotPlacement() map[domain.ActionID]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	placed := make(map[domain.ActionID]int, len(c.placed))
	for id, phase := range c.placed {
		placed[id] = phase
	}
	return placed
}

// MarkDone публикует событие успешного завершения действия.
// Вызывается исполнителем после нормального возврата handler'а.
func (c *Context) MarkDone(id domain.ActionID) {
	c.bus.Publish(bus.TopicStatus(c.id), domain.CompletionEvent{
		Action:    id,
		Status:    domain.ActionStatusDone,
		ContextID: c.id,
	})
}

// MarkError публикует событие падения действия.
// Вызывается исполнителем, если handler вернул ошибку.
func (c *Context) MarkError(id domain.ActionID, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.bus.Publish(bus.TopicStatus(c.id), domain.CompletionEvent{
		Action:    id,
		Status:    domain.ActionStatusError,
		ContextID: c.id,
		Error:     msg,
	})
}

// onStatus — внутренний слушатель событий завершения.
//
// Единственное место, где растёт журнал завершений и продвигается
// машина состояний по ходу раунда.
func (c *Context) onStatus(_ string, payload any) {
	ev, ok := payload.(domain.CompletionEvent)
	if !ok {
		c.logger.Warn("unexpected status payload", "payload", payload)
		return
	}

	c.mu.Lock()

	if c.state.IsTerminal() {
		// Опоздавший результат уже не ожидаемой фазы — отбрасываем.
		c.mu.Unlock()
		c.logger.Debug("completion after terminal state discarded",
			"action", ev.Action, "status", ev.Status)
		return
	}

	// Первое наблюдаемое завершение переводит PENDING → RUNNING.
	if c.state == domain.ContextStatePending {
		c.state = domain.ContextStateRunning
	}

	c.results[ev.Action] = ev

	if ev.Status == domain.ActionStatusDone {
		c.completed[ev.Action] = true
	}

	// Выполняем одноразовые каналы Runner'а для этого действия.
	for _, ch := range c.watchers[ev.Action] {
		ch <- ev
	}
	delete(c.watchers, ev.Action)

	// Продвигаем ожидающих WaitFor.
	if ev.Status == domain.ActionStatusDone {
		for w := range c.waiters {
			delete(w.pending, ev.Action)
			if len(w.pending) == 0 {
				w.ch <- nil
				delete(c.waiters, w)
			}
		}
	} else {
		// Любое падение отклоняет всех ожидающих, не только тех,
		// кто ждал упавшее действие.
		failErr := fmt.Errorf("%w: %s: %s", ErrDependencyFailed, ev.Action, ev.Error)
		for w := range c.waiters {
			w.ch <- failErr
			delete(c.waiters, w)
		}

		// Первое падение финализирует раунд: ERROR фиксируется здесь,
		// Runner увидит переход через failedCh и не стартует следующие
		// фазы.
		c.setErrorLocked(fmt.Sprintf("action %s failed: %s", ev.Action, ev.Error))
	}

	c.mu.Unlock()

	if ev.Status == domain.ActionStatusDone {
		c.logger.Debug("action completed", "action", ev.Action)
	} else {
		c.logger.Warn("action failed", "action", ev.Action, "error", ev.Error)
	}
}

// WaitFor блокирует вызывающего до завершения всех перечисленных действий.
//
// Разрешается немедленно, если все действия уже в журнале завершений.
// Отклоняется, если в раунде наблюдается любое падение (не обязательно
// одно из ожидаемых действий) или раунд уже финален с ошибкой.
func (c *Context) WaitFor(ctx context.Context, ids ...domain.ActionID) error {
	c.mu.Lock()

	if c.state == domain.ContextStateError {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrContextTerminal, c.failure)
	}

	// Уже известное падение зависимости — отклоняем сразу,
	// не дожидаясь события, которое никогда не придёт.
	for _, id := range ids {
		if ev, exists := c.results[id]; exists && ev.Status == domain.ActionStatusError {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s: %s", ErrDependencyFailed, id, ev.Error)
		}
	}

	pending := make(map[domain.ActionID]bool)
	for _, id := range ids {
		if !c.completed[id] {
			pending[id] = true
		}
	}

	if len(pending) == 0 {
		c.mu.Unlock()
		return nil
	}

	w := &waiter{
		pending: pending,
		ch:      make(chan error, 1),
	}
	c.waiters[w] = struct{}{}
	c.mu.Unlock()

	select {
	case err := <-w.ch:
		return err
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.waiters, w)
		c.mu.Unlock()
		return ctx.Err()
	}
}

// watch возвращает одноразовый канал завершения конкретного действия.
//
// Если результат уже известен, канал возвращается заполненным.
// Регистрировать watch нужно до публикации команды выполнения,
// иначе результат может быть пропущен.
func (c *Context) watch(id domain.ActionID) <-chan domain.CompletionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan domain.CompletionEvent, 1)
	if ev, exists := c.results[id]; exists {
		ch <- ev
		return ch
	}

	c.watchers[id] = append(c.watchers[id], ch)
	return ch
}

// setDone переводит контекст в DONE.
// No-op, если контекст уже финален (выигрывает первый переход).
func (c *Context) setDone() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsTerminal() {
		return
	}

	c.state = domain.ContextStateDone
	c.finishedAt = time.Now()
	c.teardownLocked()

	c.logger.Info("round done", "completed", len(c.completed))
}

// setError переводит контекст в ERROR.
// No-op, если контекст уже финален (выигрывает первый переход).
func (c *Context) setError(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setErrorLocked(reason)
}

// setErrorLocked — переход в ERROR под уже взятым мьютексом.
func (c *Context) setErrorLocked(reason string) {
	if c.state.IsTerminal() {
		return
	}

	c.state = domain.ContextStateError
	c.failure = reason
	c.finishedAt = time.Now()
	close(c.failedCh)

	// Отклоняем всех ожидающих: раунд закончился, их зависимости
	// уже не завершатся.
	failErr := fmt.Errorf("%w: %s", ErrRoundFailed, reason)
	for w := range c.waiters {
		w.ch <- failErr
		delete(c.waiters, w)
	}

	c.teardownLocked()

	c.logger.Warn("round failed", "error", reason)
}

// teardownLocked снимает подписки контекста. Вызывается под мьютексом
// при переходе в финальное состояние.
func (c *Context) teardownLocked() {
	if c.statusSub != nil {
		c.bus.Unsubscribe(c.statusSub)
		c.statusSub = nil
	}
	if c.discoverySub != nil {
		c.bus.Unsubscribe(c.discoverySub)
		c.discoverySub = nil
	}
}
