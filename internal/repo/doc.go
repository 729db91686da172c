// Package repo — хранение истории раундов в PostgreSQL.
//
// Персистится только аудит завершённых раундов (ContextRecord);
// состояние координатора в середине раунда не сохраняется —
// контекст живёт один раунд и не переживает рестарт процесса.
package repo
