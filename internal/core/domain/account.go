package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Provider string

const (
	ProviderCredentials Provider = "credentials"
	ProviderGoogle      Provider = "google"
)

type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Documento    string    `json:"documento"`
	PasswordHash string    `json:"-"`
	Provider     Provider  `json:"provider"`
	Image        string    `json:"image,omitempty"`
	Role         Role      `json:"rol"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session binds a client to an account. AccountID is empty while anonymous.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id,omitempty"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s Session) Authenticated() bool {
	return s.AccountID != ""
}
