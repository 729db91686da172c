// Package cli реализует инструмент командной строки Ensemble.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Ensemble API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для запуска раундов и просмотра истории и
// зарегистрированных действий.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Ensemble API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. TriggerRound блокируется до завершения
// раунда; у провалившегося раунда клиент возвращает и запись,
// и ошибку.
//
//	client := cli.NewClient("http://localhost:8080")
//	round, err := client.TriggerRound("startup")
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: ensemble round list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - round: trigger, list, show
//   - action: list
//
// Каждая группа создаётся через фабричную функцию (NewRoundCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
