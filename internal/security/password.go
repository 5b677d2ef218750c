package security

import "golang.org/x/crypto/bcrypt"

// DefaultCost matches the work factor the service has always used.
const DefaultCost = 10

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected
// by bcrypt.GenerateFromPassword with bcrypt.ErrPasswordTooLong.
const MaxPasswordBytes = 72

type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash hashes a plain text password with bcrypt.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Check compares a bcrypt hash with a plaintext password.
func (h *Hasher) Check(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
