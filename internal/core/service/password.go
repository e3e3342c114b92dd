package service

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier hashes and checks passwords with bcrypt.
type PasswordVerifier struct {
	cost int
}

func NewPasswordVerifier(cost int) *PasswordVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordVerifier{cost: cost}
}

// Hash returns a salted bcrypt hash. The salt is random per call.
func (p *PasswordVerifier) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), p.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Matches reports whether plain hashes to hash. A malformed hash never matches.
func (p *PasswordVerifier) Matches(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
