package security

import "golang.org/x/crypto/bcrypt"

// BcryptHasher hashes passwords with bcrypt. The zero value runs at the
// library default cost; tests lower Cost to keep hashing fast.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := bcrypt.DefaultCost
	if h.Cost >= bcrypt.MinCost {
		cost = h.Cost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare returns bcrypt's mismatch error untranslated; the auth service
// folds it into its invalid-credentials sentinel.
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
