package coordinator

import (
	"github.com/shaiso/Ensemble/internal/domain"
	"github.com/shaiso/Ensemble/internal/registry"
)

// validatePhases статически проверяет собранную карту фаз.
//
// Для каждого обнаруженного действия читается список заявленных
// зависимостей из дескриптора (статических, времени регистрации —
// в отличие от механизма WaitFor времени выполнения) и проверяется:
//
//  1. Зависимость обнаружена в этом раунде — иначе DependencyError:
//     необнаруженное действие никогда не завершится.
//  2. Фаза зависимости не больше фазы зависящего действия — иначе
//     PhaseParadoxError: фазы выполняются по возрастанию, ссылка
//     вперёд означала бы deadlock.
//
// Равная или более ранняя фаза допустима: порядок внутри фазы
// разрешается механизмом WaitFor, а не планированием.
//
// Валидация — всё или ничего: первая же ошибка прерывает раунд
// до выполнения каких-либо handler'ов, без побочных эффектов.
func validatePhases(placed map[domain.ActionID]int, reg *registry.Registry) error {
	for id, phase := range placed {
		desc, err := reg.Lookup(id)
		if err != nil {
			// Ответивший без дескриптора обрабатывается исполнителем
			// как no-op; зависимостей у него заявлено быть не может.
			continue
		}

		for _, dep := range desc.DependsOn {
			depPhase, discovered := placed[dep]
			if !discovered {
				return &DependencyError{Action: id, Dependency: dep}
			}

			if depPhase > phase {
				return &PhaseParadoxError{
					Action:          id,
					Phase:           phase,
					Dependency:      dep,
					DependencyPhase: depPhase,
				}
			}
		}
	}

	return nil
}
