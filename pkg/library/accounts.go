package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/kv"
	"golang.org/x/crypto/bcrypt"
)

// WithPasswordCost sets the bcrypt cost used by Register.
func WithPasswordCost(cost int) Option {
	return func(s *Store) { s.passwordCost = cost }
}

func (s *Store) members() []data.Account {
	return kv.Read(s.kv, kv.KeyMembers, []data.Account{})
}

func findMember(members []data.Account, username string) int {
	for i, m := range members {
		if strings.EqualFold(m.Username, username) {
			return i
		}
	}
	return -1
}

// Register creates an account and logs it in. Usernames are unique without
// regard to case.
func (s *Store) Register(username, password string) (data.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return data.Account{}, errors.New("username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.members()
	if findMember(members, username) >= 0 {
		return data.Account{}, fmt.Errorf("failed to register %q: %w", username, ErrAccountExists)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return data.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}
	account := data.Account{
		ID:           newID("user"),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UnixMilli(),
	}
	if err := s.kv.Write(kv.KeyMembers, append(members, account)); err != nil {
		return data.Account{}, fmt.Errorf("failed to save account: %w", err)
	}
	if err := s.kv.Write(kv.KeySession, data.Session{AccountID: account.ID}); err != nil {
		return data.Account{}, fmt.Errorf("failed to save session: %w", err)
	}
	return account, nil
}

// Login checks the credentials and points the session at the account.
func (s *Store) Login(username, password string) (data.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.members()
	i := findMember(members, strings.TrimSpace(username))
	if i < 0 {
		return data.Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(members[i].PasswordHash), []byte(password)); err != nil {
		return data.Account{}, ErrInvalidCredentials
	}
	if err := s.kv.Write(kv.KeySession, data.Session{AccountID: members[i].ID}); err != nil {
		return data.Account{}, fmt.Errorf("failed to save session: %w", err)
	}
	return members[i], nil
}

func (s *Store) Logout() error {
	return s.kv.Remove(kv.KeySession)
}

// CurrentAccount returns the logged-in account, if any.
func (s *Store) CurrentAccount() (data.Account, bool) {
	session := kv.Read(s.kv, kv.KeySession, data.Session{})
	if session.AccountID == "" {
		return data.Account{}, false
	}
	for _, m := range s.members() {
		if m.ID == session.AccountID {
			return m, true
		}
	}
	return data.Account{}, false
}

func (s *Store) cost() int {
	if s.passwordCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.passwordCost
}
