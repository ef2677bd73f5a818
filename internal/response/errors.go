package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation  ErrCode = "VALIDATION_ERROR"
	ErrInvalidID   ErrCode = "INVALID_ID"
	ErrNoSelection ErrCode = "NO_SELECTION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrSubjectExists ErrCode = "SUBJECT_EXISTS"
	ErrNoReportData  ErrCode = "NO_REPORT_DATA"

	// ─── Exam session ──────────────────────────────────────────────────
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"
	ErrNotEnoughQuestions ErrCode = "NOT_ENOUGH_QUESTIONS"
	ErrAttemptActive      ErrCode = "ATTEMPT_ACTIVE"
	ErrAlreadySubmitted   ErrCode = "ALREADY_SUBMITTED"
	ErrNoActiveAttempt    ErrCode = "NO_ACTIVE_ATTEMPT"

	// ─── Store ─────────────────────────────────────────────────────────
	ErrStoreWriteFailed ErrCode = "STORE_WRITE_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Проверьте правильность заполнения полей."
	case ErrInvalidID:
		return "Неверный формат идентификатора."
	case ErrNoSelection:
		return "Выберите хотя бы одну запись."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Запись не найдена."
	case ErrSubjectExists:
		return "Такой предмет уже существует."
	case ErrNoReportData:
		return "Нет данных для отчета."

	// ─── Exam session ──────────────────────────────────────────────────
	case ErrSessionNotFound:
		return "Экзамен не найден (обновите страницу и начните снова)."
	case ErrNotEnoughQuestions:
		return "Для выбранного предмета должно быть как минимум 2 вопроса."
	case ErrAttemptActive:
		return "Экзамен уже начат."
	case ErrAlreadySubmitted:
		return "Ответы уже отправлены."
	case ErrNoActiveAttempt:
		return "Нет активного экзамена."

	// ─── Store ─────────────────────────────────────────────────────────
	case ErrStoreWriteFailed:
		return "Не удалось сохранить данные. Попробуйте ещё раз."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Слишком много запросов. Попробуйте позже."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Произошла внутренняя ошибка сервера."
	default:
		return "Произошла непредвиденная ошибка."
	}
}
