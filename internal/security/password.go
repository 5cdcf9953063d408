package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates input past 72 bytes; refuse it instead.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// dummyHash has the same cost as real hashes, so comparing against it takes
// as long as a genuine mismatch.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("inkpost-absent-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// CheckAbsent burns one bcrypt comparison for a login that matched no
// account, so unknown and known logins take the same time to reject.
func CheckAbsent(plain string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(plain))
}
