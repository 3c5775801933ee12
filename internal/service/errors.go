package service

import "errors"

// Ошибки сервисного слоя.
var (
	// ErrForbidden — у пользователя нет прав на операцию.
	ErrForbidden = errors.New("операция доступна только администраторам")
	// ErrOwnerImmutable — попытка снять права с владельца.
	ErrOwnerImmutable = errors.New("владельца нельзя удалить из администраторов")
	// ErrNoCaptureSession — контент пришёл без активной сессии захвата.
	ErrNoCaptureSession = errors.New("нет активной сессии захвата")
	// ErrInvalidKind — тип контента вне закрытого множества.
	ErrInvalidKind = errors.New("недопустимый тип контента")
	// ErrEmptyBatch — батч финализирован без единого элемента.
	ErrEmptyBatch = errors.New("батч не содержит элементов")
	// ErrInvalidCode — код не проходит валидацию формата.
	ErrInvalidCode = errors.New("недопустимый формат кода")
)
