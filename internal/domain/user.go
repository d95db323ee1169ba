package domain

import "time"

// Account is a login identity. CompanyID is nil only for platform accounts.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	PasswordHash string
	CompanyID    *string
	Roles        []Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// AccountSummary is the list projection of an account.
type AccountSummary struct {
	Account
	CompanyName *string
}
