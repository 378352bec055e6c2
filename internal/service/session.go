package service

import "github.com/iliyamo/bakery-bookings/internal/model"

// Session identifies the authenticated caller of a service operation.
type Session struct {
	UserID uint64
	Role   string
}

func (s Session) IsAdmin() bool { return s.Role == model.RoleAdmin }
