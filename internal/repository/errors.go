// Package repository holds the MySQL persistence adapters for users, agents,
// tasks, revisions, subscriptions and AI usage.
package repository

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")
)
