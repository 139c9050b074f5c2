package domain

import "time"

// Client is a company the helpdesk serves; contracts and tickets hang off it.
type Client struct {
	ID        string
	Name      string
	Document  string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
