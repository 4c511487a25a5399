package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Najnomics/lockedin-api/internal/model"
)

// userMemoryRepository is an in-memory UserRepository used by tests and local
// runs without a database.
type userMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]model.User // keyed by phone
}

// NewUserMemoryRepository creates an empty in-memory UserRepository.
func NewUserMemoryRepository() UserRepository {
	return &userMemoryRepository{users: make(map[string]model.User)}
}

func (r *userMemoryRepository) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Phone]; exists {
		return nil, ErrDuplicatePhone
	}

	user.CreatedAt = time.Now().UTC()
	r.users[user.Phone] = cloneUser(*user)
	return user, nil
}

func (r *userMemoryRepository) GetUserByPhone(_ context.Context, phone string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[phone]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (r *userMemoryRepository) UpdateReminderTimes(
	_ context.Context,
	phone string,
	times []string,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[phone]
	if !ok {
		return nil, ErrUserNotFound
	}

	user.ReminderTimes = append([]string(nil), times...)
	r.users[phone] = user

	out := cloneUser(user)
	return &out, nil
}

func (r *userMemoryRepository) SetActive(_ context.Context, phone string, active bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[phone]
	if !ok {
		return nil, ErrUserNotFound
	}

	user.Active = active
	r.users[phone] = user

	out := cloneUser(user)
	return &out, nil
}

func (r *userMemoryRepository) ListActiveUsers(_ context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*model.User
	for _, user := range r.users {
		if !user.Active {
			continue
		}
		out := cloneUser(user)
		users = append(users, &out)
	}
	return users, nil
}

func cloneUser(u model.User) model.User {
	u.Goals = append([]string(nil), u.Goals...)
	u.ReminderTimes = append([]string(nil), u.ReminderTimes...)
	return u
}
