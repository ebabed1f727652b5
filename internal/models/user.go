package models

// User identifies an authenticated member of the community. Profile storage
// lives with the identity provider; only the fields needed to stamp outgoing
// messages and announce presence are carried here.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
