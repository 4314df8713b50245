package user

import "time"

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // Never expose password hash in JSON
	CreatedAt time.Time `json:"created_at"`
}

// PublicIdentity is what registration returns: never the password, even hashed
type PublicIdentity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() PublicIdentity {
	return PublicIdentity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
