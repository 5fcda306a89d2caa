package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/phenrril/prostore/internal/domain"
)

// mapErr converts gorm sentinels into domain errors naming the resource.
func mapErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound(what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %w", what, domain.ErrConflict)
	}
	return err
}

func offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
