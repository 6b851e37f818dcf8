package repository

import (
	"errors"
	"strings"

	"chat-gateway/internal/errs"

	"gorm.io/gorm"
)

// translate 将gorm错误转换为业务错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}
	if isUniqueViolation(err) {
		return errs.Wrap(errs.TypeAlreadyExists, errs.ErrAlreadyExists.MsgID, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// affected 按影响行数判断记录是否存在
func affected(result *gorm.DB) error {
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
