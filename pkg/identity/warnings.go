package identity

import "fmt"

// Warning and reason texts surfaced to catalog readers.
const (
	MissingArchiveWarning = "Загрузка без .aprx. Названия слоёв будут техническими, " +
		"маппинг display_name невозможен. Рекомендуется загрузить .aprx."

	UnmappedReason = "Отсутствует в .aprx, не распознан по словарю и структуре данных"
)

// InferredWarning flags a layer whose display name was guessed.
func InferredWarning(dataset, displayName string) string {
	return fmt.Sprintf("Слой '%s': display_name выведен автоматически → \"%s\"", dataset, displayName)
}

// UnmappedWarning flags a layer that needs manual labeling.
func UnmappedWarning(dataset string) string {
	return fmt.Sprintf("Слой '%s' не найден в .aprx и не распознан автоматически — требует ручной разметки", dataset)
}
