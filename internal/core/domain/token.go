package domain

import "time"

// Token is a signed bearer credential. It is never persisted.
type Token struct {
	Value     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
