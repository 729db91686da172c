package bus

import (
	"github.com/google/uuid"

	"github.com/shaiso/Ensemble/internal/domain"
)

// Wildcard — сегмент шаблона, совпадающий с одним произвольным сегментом.
const Wildcard = "*"

// Топики координатора.
//
// Схема:
//
//	/context/{kind}/{id}/rfa            — discovery запрос (RFA)
//	/context/{id}/ith                   — discovery ответ (ITH)
//	/context/execute/{module}/{action}  — команда выполнения действия
//	/context/{id}/status                — события завершения действий
func TopicRFA(kind string, contextID uuid.UUID) string {
	return "/context/" + kind + "/" + contextID.String() + "/rfa"
}

// TopicRFAPattern возвращает шаблон постоянной подписки на RFA
// для указанного типа контекста (любой context id).
func TopicRFAPattern(kind string) string {
	return "/context/" + kind + "/" + Wildcard + "/rfa"
}

// TopicITH возвращает топик discovery-ответов конкретного контекста.
func TopicITH(contextID uuid.UUID) string {
	return "/context/" + contextID.String() + "/ith"
}

// TopicExecute возвращает топик команды выполнения действия.
func TopicExecute(id domain.ActionID) string {
	return "/context/execute/" + id.Module + "/" + id.Action
}

// TopicStatus возвращает топик событий завершения контекста.
func TopicStatus(contextID uuid.UUID) string {
	return "/context/" + contextID.String() + "/status"
}

// TopicStatusPattern возвращает шаблон подписки на события завершения
// всех контекстов (используется relay).
func TopicStatusPattern() string {
	return "/context/" + Wildcard + "/status"
}
