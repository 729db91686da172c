// Package relay транслирует события координатора во внешний RabbitMQ.
//
// Внутрипроцессная шина остаётся транспортом координатора; relay —
// опциональный мост для внешних наблюдателей (дашборды, аудит,
// другие системы):
//   - события завершения действий (подписка на /context/*/status)
//   - записи о завершённых раундах (вызов из service)
//
// Всё публикуется в topic exchange "ensemble.events":
//   - action.{module}.{status}         — завершение действия
//   - round.{kind}.{state}             — финал раунда
//
// Relay строго исходящий: внешний брокер не влияет на координацию.
package relay
