// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/openbeheer/bff/core/csql"
)

// ErrInvalidCredentials is returned when username or password do not match.
var ErrInvalidCredentials = errors.New("access: invalid credentials")

// User is one gateway account.
type User struct {
	PK           int    `json:"pk"`
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Principal strips the user down to its frontend representation.
func (u User) Principal() *Principal {
	return &Principal{
		PK:        u.PK,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// UserStore looks up and verifies gateway accounts.
type UserStore interface {
	Get(ctx context.Context, username string) (User, error)
	Authenticate(ctx context.Context, username, password string) (User, error)
}

// HashPassword produces the stored hash for a password: a random salt
// plus the salted HMAC-SHA256 digest, both base64.
func HashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return encodeHash(salt, digest(salt, password)), nil
}

func digest(salt []byte, password string) []byte {
	mac := hmac.New(sha256.New, salt)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

func encodeHash(salt, sum []byte) string {
	return base64.StdEncoding.EncodeToString(salt) + "$" + base64.StdEncoding.EncodeToString(sum)
}

// VerifyPassword checks a password against a stored hash in constant time.
func VerifyPassword(hash, password string) bool {
	var saltPart, sumPart string
	for i := 0; i < len(hash); i++ {
		if hash[i] == '$' {
			saltPart, sumPart = hash[:i], hash[i+1:]
			break
		}
	}
	salt, err := base64.StdEncoding.DecodeString(saltPart)
	if err != nil {
		return false
	}
	sum, err := base64.StdEncoding.DecodeString(sumPart)
	if err != nil {
		return false
	}
	return hmac.Equal(sum, digest(salt, password))
}

// MemoryUserStore is an in-process account store, used when the gateway
// runs without a database and in tests.
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  map[string]User
	nextPK int
}

// NewMemoryUserStore creates an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[string]User{}, nextPK: 1}
}

// Add creates an account with the given password.
func (s *MemoryUserStore) Add(user User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.PasswordHash = hash
	if user.PK == 0 {
		user.PK = s.nextPK
		s.nextPK++
	}
	s.users[user.Username] = user
	return nil
}

// Get returns the account with the given username.
func (s *MemoryUserStore) Get(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Authenticate verifies the password and returns the account.
func (s *MemoryUserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return User{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Usernames lists all account names, ordered.
func (s *MemoryUserStore) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PostgresUserStore keeps accounts in the database.
type PostgresUserStore struct {
	db *csql.DB
}

// NewPostgresUserStore creates the store and its table.
func NewPostgresUserStore(db *csql.DB) (*PostgresUserStore, error) {
	_, err := db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s."_users_" (
pk SERIAL PRIMARY KEY,
username VARCHAR UNIQUE NOT NULL,
first_name VARCHAR NOT NULL DEFAULT '',
last_name VARCHAR NOT NULL DEFAULT '',
email VARCHAR NOT NULL DEFAULT '',
password_hash VARCHAR NOT NULL,
timestamp TIMESTAMP NOT NULL DEFAULT now()
);`, db.Schema))
	if err != nil {
		return nil, err
	}
	return &PostgresUserStore{db: db}, nil
}

// Put creates or updates an account with the given password.
func (s *PostgresUserStore) Put(ctx context.Context, user User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s."_users_" (username, first_name, last_name, email, password_hash)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (username) DO UPDATE
SET first_name = $2, last_name = $3, email = $4, password_hash = $5, timestamp = now();`, s.db.Schema),
		user.Username, user.FirstName, user.LastName, user.Email, hash)
	return err
}

// Get returns the account with the given username.
func (s *PostgresUserStore) Get(ctx context.Context, username string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT pk, username, first_name, last_name, email, password_hash
FROM %s."_users_" WHERE username = $1;`, s.db.Schema), username).
		Scan(&user.PK, &user.Username, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Authenticate verifies the password and returns the account.
func (s *PostgresUserStore) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return User{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}
