// Package domain содержит основные типы данных Ensemble.
//
// Здесь определены:
//   - ActionID — типизированный идентификатор действия (модуль + действие)
//   - Descriptor — статическое описание действия (фаза, зависимости, handler)
//   - ContextState — состояния контекста выполнения
//   - CompletionEvent — событие завершения действия
//   - ContextRecord — запись о завершённом раунде для истории
//
// Domain не зависит от других internal пакетов —
// все остальные пакеты зависят от него.
package domain
