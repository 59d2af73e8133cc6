package auth

import (
	"errors"
	"fmt"
	"strings"
)

// MaxUsernameLength ограничивает имя учётной записи консоли
const MaxUsernameLength = 32

// UserRepository хранит учётные записи админ-консоли
type UserRepository interface {
	// GetUserByUsername ищет пользователя без учёта регистра, иначе ErrUserNotFound
	GetUserByUsername(username string) (*User, error)

	// CreateUser сохраняет пользователя с готовым bcrypt-хешем.
	// Занятое имя даёт ErrUserExists.
	CreateUser(username string, passwordHash string, isAdmin bool) (*User, error)

	// ValidateCredentials проверяет пароль. Любая ошибка входа - ErrInvalidCredentials.
	ValidateCredentials(username, password string) (*User, error)
}

var (
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrUserExists         = errors.New("пользователь уже существует")
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrInvalidUsername    = errors.New("недопустимое имя пользователя")
	ErrWeakPassword       = errors.New("слишком короткий пароль")
	ErrBadPasswordHash    = errors.New("некорректный хеш пароля")
)

// ValidateUsername проверяет имя: непустое, без пробелов, не длиннее MaxUsernameLength
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: пустое имя", ErrInvalidUsername)
	case len(username) > MaxUsernameLength:
		return fmt.Errorf("%w: длиннее %d байт", ErrInvalidUsername, MaxUsernameLength)
	case strings.ContainsAny(username, " \t\r\n"):
		return fmt.Errorf("%w: %q содержит пробелы", ErrInvalidUsername, username)
	}
	return nil
}
