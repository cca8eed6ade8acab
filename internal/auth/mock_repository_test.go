package auth

import (
	"context"
	"sort"
	"sync"
	"time"
)

// mockRepository keeps records in maps and hands out copies, so callers see
// the same isolation they get from a real database.
type mockRepository struct {
	mu          sync.RWMutex
	users       map[uint]*User
	admins      map[uint]*Admin
	settings    map[string]*Setting
	nextUserID  uint
	nextAdminID uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:    make(map[uint]*User),
		admins:   make(map[uint]*Admin),
		settings: make(map[string]*Setting),
	}
}

func copyUser(u *User) *User {
	c := *u
	update := UserUpdate{
		ApprovalDate:       u.ApprovalDate,
		ExpiryDate:         u.ExpiryDate,
		LastLoginIP:        u.LastLoginIP,
		ActiveSessionToken: u.ActiveSessionToken,
	}
	c.ApprovalDate, c.ExpiryDate, c.LastLoginIP, c.ActiveSessionToken = nil, nil, nil, nil
	update.apply(&c)
	return &c
}

func (r *mockRepository) CreateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return ErrUserExists
		}
	}

	r.nextUserID++
	user.ID = r.nextUserID
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *mockRepository) GetUserByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) GetUserByID(_ context.Context, id uint) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *mockRepository) ListUsers(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].RegistrationDate.Equal(users[j].RegistrationDate) {
			return users[i].RegistrationDate.After(users[j].RegistrationDate)
		}
		return users[i].ID > users[j].ID
	})
	return users, nil
}

func (r *mockRepository) UpdateUser(_ context.Context, id uint, update UserUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	update.apply(u)
	return nil
}

func (r *mockRepository) ExpireUser(_ context.Context, id uint, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.Status != StatusApproved || u.ExpiryDate == nil || !u.ExpiryDate.Before(now) {
		return false, nil
	}
	u.Status = StatusExpired
	return true, nil
}

func (r *mockRepository) ClearSession(_ context.Context, id uint, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if ok && u.ActiveSessionToken != nil && *u.ActiveSessionToken == token {
		u.ActiveSessionToken = nil
	}
	return nil
}

func (r *mockRepository) CreateAdmin(_ context.Context, admin *Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.admins {
		if a.Username == admin.Username {
			return ErrAdminExists
		}
	}

	r.nextAdminID++
	admin.ID = r.nextAdminID
	c := *admin
	r.admins[admin.ID] = &c
	return nil
}

func (r *mockRepository) GetAdminByUsername(_ context.Context, username string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.admins {
		if a.Username == username {
			c := *a
			return &c, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (r *mockRepository) GetAdminByID(_ context.Context, id uint) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	c := *a
	return &c, nil
}

func (r *mockRepository) ListAdmins(_ context.Context) ([]Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admins := make([]Admin, 0, len(r.admins))
	for _, a := range r.admins {
		admins = append(admins, *a)
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].Username < admins[j].Username })
	return admins, nil
}

func (r *mockRepository) CountAdmins(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.admins)), nil
}

func (r *mockRepository) DeleteAdmin(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.admins[id]; !ok {
		return ErrAdminNotFound
	}
	delete(r.admins, id)
	return nil
}

func (r *mockRepository) GetSetting(_ context.Context, key string) (*Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settings[key]
	if !ok {
		return nil, ErrSettingNotFound
	}
	c := *s
	return &c, nil
}

func (r *mockRepository) PutSetting(_ context.Context, key string, value int) (*Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.settings[key]
	if !ok {
		s = &Setting{Key: key}
		r.settings[key] = s
	}
	s.Value = value
	s.Version++
	s.UpdatedAt = time.Now().UTC()
	c := *s
	return &c, nil
}

func (r *mockRepository) EnsureSetting(_ context.Context, key string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.settings[key]; !ok {
		r.settings[key] = &Setting{Key: key, Value: value, Version: 1, UpdatedAt: time.Now().UTC()}
	}
	return nil
}
