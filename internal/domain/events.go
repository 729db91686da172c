package domain

import "github.com/google/uuid"

// DiscoveryRequest — широковещательный запрос участия (RFA).
//
// Контекст публикует его в начале раунда на топик своего типа,
// чтобы найти действия, желающие участвовать.
type DiscoveryRequest struct {
	// ContextID — идентификатор раунда.
	ContextID uuid.UUID `json:"context_id"`

	// ContextKind — тип контекста.
	ContextKind string `json:"context_kind"`
}

// DiscoveryReply — ответ действия на discovery (ITH).
//
// Публикуется постоянной подпиской действия на топик конкретного
// контекста и объявляет фазу, в которой действие хочет выполняться.
type DiscoveryReply struct {
	// Action — идентификатор отвечающего действия.
	Action ActionID `json:"action"`

	// Phase — заявленная фаза.
	Phase int `json:"phase"`
}

// CompletionEvent — событие завершения одного действия.
//
// Публикуется исполнителем (MarkDone/MarkError) на топик контекста
// и потребляется внутренним слушателем контекста. Эфемерно:
// публикуется один раз и отбрасывается после обработки.
type CompletionEvent struct {
	// Action — идентификатор завершившегося действия.
	Action ActionID `json:"action"`

	// Status — результат: DONE или ERROR.
	Status ActionStatus `json:"status"`

	// ContextID — раунд, в котором действие выполнялось.
	ContextID uuid.UUID `json:"context_id"`

	// Error — текст ошибки (только для Status == ERROR).
	Error string `json:"error,omitempty"`
}
