package service

import "errors"

// Ошибки уровня оркестратора: любые ошибки хранилищ переводятся
// в одну из этих категорий до того, как уйдут наружу. Сырые ошибки
// бэкендов остаются только в логах.
var (
	ErrQuotaExceeded      = errors.New("not enough storage space available")
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	ErrInvalidName        = errors.New("invalid name")
	ErrNotFound           = errors.New("item not found")
	ErrInconsistentRename = errors.New("rename left both old and new copies in storage")
)
