// Package coordinator реализует координацию раундов выполнения.
//
// Coordinator — "мозг" Ensemble. Для каждого раунда создаётся Context,
// который:
//   - Рассылает discovery запрос (RFA) и собирает ответы (ITH)
//     в течение ограниченного окна
//   - Строит карту фаз из собранных ответов
//   - Валидирует карту: заявленные зависимости должны быть обнаружены
//     и находиться не в более поздней фазе
//   - Выполняет фазы строго по возрастанию номеров с параллельным
//     выполнением действий внутри фазы
//   - Ведёт журнал завершений и машину состояний
//     (PENDING → RUNNING → DONE|ERROR)
//
// Executor — постоянный компонент, связывающий реестр действий с шиной:
// отвечает на discovery и выполняет действия по командам Runner'а,
// соблюдая явные зависимости через Context.WaitFor.
//
// Распространение ошибок: ошибки валидации прерывают раунд целиком
// до выполнения каких-либо handler'ов; ошибки выполнения переводят
// Context в ERROR, но handler'ы уже запущенной фазы не отменяются —
// их результаты просто перестают ожидаться.
package coordinator
