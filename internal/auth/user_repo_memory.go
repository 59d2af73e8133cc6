package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryUserRepo is a threadsafe in-memory storage for console accounts.
// ID counter starts from 1.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[string]*User // key = lowercase(username)
	nextID uint64
}

// NewMemoryUserRepo returns an empty repository
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:  make(map[string]*User),
		nextID: 1,
	}
}

// EnsureAdmin создаёт администратора консоли. Если хеш пароля не задан,
// генерируется случайный пароль и возвращается вызывающему.
func EnsureAdmin(repo UserRepository, username, passwordHash string) (generated string, err error) {
	if passwordHash != "" {
		if err := ValidatePasswordHash(passwordHash); err != nil {
			return "", err
		}
	} else {
		secret, err := GenerateSecureSecret()
		if err != nil {
			return "", fmt.Errorf("ошибка генерации пароля: %w", err)
		}
		generated = secret[:16]
		if passwordHash, err = HashPassword(generated); err != nil {
			return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
		}
	}

	if _, err := repo.CreateUser(username, passwordHash, true); err != nil {
		return "", err
	}
	return generated, nil
}

// GetUserByUsername retrieves user by case-insensitive username.
func (r *MemoryUserRepo) GetUserByUsername(username string) (*User, error) {
	key := normalize(username)
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[key]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateUser inserts a new user if username not present.
func (r *MemoryUserRepo) CreateUser(username string, passwordHash string, isAdmin bool) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		IsAdmin:      isAdmin,
	}
	r.nextID++
	r.users[key] = user
	return user, nil
}

// ValidateCredentials checks the password and updates LastLogin on success
func (r *MemoryUserRepo) ValidateCredentials(username, password string) (*User, error) {
	user, err := r.GetUserByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	r.mu.Lock()
	user.LastLogin = time.Now()
	r.mu.Unlock()
	return user, nil
}

// Helper to normalise usernames.
func normalize(username string) string {
	return strings.ToLower(username)
}
