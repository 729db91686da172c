// Package scheduler запускает раунды по cron-расписанию.
//
// Расписания задаются в конфигурации сервера: каждая запись —
// тип контекста и cron-выражение. По срабатыванию планировщик
// триггерит раунд через RoundService; падение раунда логируется
// и не останавливает расписание.
package scheduler
