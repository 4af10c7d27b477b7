package models

import "time"

// Balance tracks the gamification credits and in-app currency of one user.
type Balance struct {
	Identity  string    `json:"identity"`
	Credits   int64     `json:"credits"`
	Currency  int64     `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdjustRequest is the PUT /users/credits and /users/currency body. Delta may
// be negative; balances never drop below zero.
type AdjustRequest struct {
	Delta int64 `json:"delta"`
}
