// Package registry содержит реестр дескрипторов действий.
//
// Реестр заполняется один раз при старте процесса: каждый модуль
// регистрирует свои действия (фазу, явные зависимости, типы
// контекстов и handler). После этого реестр только читается —
// координатор и исполнитель получают его явно через конструкторы,
// никаких глобальных реестров процесса.
package registry
