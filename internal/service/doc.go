// Package service связывает координатор с инфраструктурой.
//
// RoundService запускает раунды (по запросу API, CLI или расписания),
// наблюдает метрики, сохраняет записи в историю и отдаёт их в relay.
// Координатор при этом остаётся свободным от хранения и внешнего
// транспорта.
package service
