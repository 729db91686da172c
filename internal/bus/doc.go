// Package bus реализует внутрипроцессную шину сообщений.
//
// Шина — транспорт координатора: discovery (RFA/ITH), команды
// выполнения действий и события завершения ходят через неё.
//
// Модель доставки:
//   - Publish — fire-and-forget: каждая доставка выполняется
//     в отдельной горутине, издатель не ждёт подписчиков
//   - Subscribe — подписка по шаблону топика; сегмент "*"
//     совпадает ровно с одним сегментом топика
//   - Unsubscribe — детерминированное снятие подписки
//
// Порядок доставки между подписчиками не гарантируется.
package bus
