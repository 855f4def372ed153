package store

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// CreateUser inserts a new operator identity with a bcrypt-hashed
// password.
func (s *Store) CreateUser(ctx context.Context, username, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apierr.New(apierr.Internal, "hash password: %v", err)
	}
	u := User{ID: newID(), Username: username, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if isDuplicate(err) {
			return User{}, apierr.New(apierr.Duplicate, "username already taken")
		}
		return User{}, err
	}
	return u, nil
}

// Authenticate checks a username/password pair and returns the matching
// User on success.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error
	if err != nil {
		return User{}, apierr.New(apierr.BadCredentials, "invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, apierr.New(apierr.BadCredentials, "invalid username or password")
	}
	return u, nil
}

// GetUser fetches a User by id, used to resolve a validated JWT subject.
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		return User{}, wrapNotFound("user", err)
	}
	return u, nil
}
