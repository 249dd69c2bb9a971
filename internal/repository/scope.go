package repository

import (
	"context"
	"errors"
)

// ErrQuotaExceeded indica que el almacenamiento rechazo la escritura por espacio.
var ErrQuotaExceeded = errors.New("repository: storage quota exceeded")

// Scope es un almacenamiento clave/valor de strings, el equivalente de un storage del navegador.
type Scope interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
