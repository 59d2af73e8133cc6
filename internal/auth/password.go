package auth

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength - минимальная длина пароля консоли в символах
const MinPasswordLength = 8

// passwordCost - стоимость bcrypt для паролей консоли
const passwordCost = bcrypt.DefaultCost

// HashPassword хеширует пароль консоли. Короткий пароль отклоняется.
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: нужно не меньше %d символов", ErrWeakPassword, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("ошибка bcrypt: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с bcrypt-хешем
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordHash проверяет, что хеш из конфигурации - корректный bcrypt
func ValidatePasswordHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPasswordHash, err)
	}
	return nil
}
