// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go       — Handler с DI (service, registry, logger)
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — middleware (logging, recovery)
//   - response.go      — унифицированные JSON-ответы и обработка ошибок
//   - dto.go           — Data Transfer Objects (request/response)
//   - round_handler.go — обработчики для /rounds
//
// API предоставляет REST endpoints для запуска раундов, просмотра
// истории и интроспекции зарегистрированных действий.
package api
