// Package config загружает конфигурацию сервера Ensemble.
//
// Источники, в порядке приоритета:
//  1. Переменные окружения (HTTP_ADDR, DB_URL, RABBITMQ_URL, ...)
//  2. TOML файл (путь через флаг -config)
//  3. Значения по умолчанию
//
// БД и RabbitMQ опциональны: без DSN сервер работает без истории
// раундов, без URL брокера — без внешнего relay.
package config
