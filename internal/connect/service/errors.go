package service

import "errors"

var (
	ErrInvalidState            = errors.New("invalid_state")
	ErrExpiredState            = errors.New("expired_state")
	ErrStateCollision          = errors.New("state_collision")
	ErrAuthorizationDenied     = errors.New("access_denied")
	ErrNoAccessibleResource    = errors.New("no_accessible_resource")
	ErrNotConnected            = errors.New("not_connected")
	ErrReauthorizationRequired = errors.New("reauthorization_required")
	ErrNoRefreshToken          = errors.New("no_refresh_token")
)
