// Package users is the user store: accounts keyed by a client-chosen id.
package users

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ariefcatur/go-microshop/internal/jsonfield"
)

var (
	ErrInvalid   = errors.New("invalid user")
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

type User struct {
	ID       int
	Username string
	Email    string
	Password string
}

// View is the wire form of a user. The password only leaves the service
// as a digest.
type View struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (u User) View() View {
	return View{ID: u.ID, Username: u.Username, Email: u.Email, Password: HashPassword(u.Password)}
}

// HashPassword is the upper-case hex SHA-256 of p.
func HashPassword(p string) string {
	sum := sha256.Sum256([]byte(p))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func validEmail(e string) bool {
	return strings.Count(e, "@") == 1
}

// Patch holds the fields an update sets; nil means unchanged.
type Patch struct {
	Username *string
	Email    *string
	Password *string
}

func ParseCreate(id int, body string) (User, error) {
	u := User{ID: id}
	u.Username, _ = jsonfield.Get(body, "username")
	u.Email, _ = jsonfield.Get(body, "email")
	u.Password, _ = jsonfield.Get(body, "password")
	if u.Username == "" || u.Email == "" || u.Password == "" || !validEmail(u.Email) {
		return User{}, ErrInvalid
	}
	return u, nil
}

func ParseUpdate(body string) (Patch, error) {
	var p Patch
	if v, ok := jsonfield.Get(body, "username"); ok {
		if v == "" {
			return Patch{}, ErrInvalid
		}
		p.Username = &v
	}
	if v, ok := jsonfield.Get(body, "email"); ok {
		if !validEmail(v) {
			return Patch{}, ErrInvalid
		}
		p.Email = &v
	}
	if v, ok := jsonfield.Get(body, "password"); ok {
		if v == "" {
			return Patch{}, ErrInvalid
		}
		p.Password = &v
	}
	return p, nil
}

// ParseDelete reads the credentials a delete must repeat.
func ParseDelete(id int, body string) (User, error) {
	u := User{ID: id}
	var ok1, ok2, ok3 bool
	u.Username, ok1 = jsonfield.Get(body, "username")
	u.Email, ok2 = jsonfield.Get(body, "email")
	u.Password, ok3 = jsonfield.Get(body, "password")
	if !ok1 || !ok2 || !ok3 {
		return User{}, ErrInvalid
	}
	return u, nil
}

func (p Patch) Apply(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	return u
}
