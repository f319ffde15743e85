package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/pkg/config"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// AcademicRules carries the configurable tokens the engines compare against.
type AcademicRules struct {
	DefaultPeriod      string
	LockedStatuses     []string
	AvailableStatuses  []string
	ItemStatusReserved string
}

// RulesFromConfig builds engine rules, filling blanks with built-in defaults.
func RulesFromConfig(cfg config.AcademicConfig) AcademicRules {
	rules := AcademicRules{
		DefaultPeriod:      cfg.DefaultPeriod,
		LockedStatuses:     cfg.LockedStatuses,
		AvailableStatuses:  cfg.AvailableStatuses,
		ItemStatusReserved: cfg.ItemStatusReserved,
	}
	return rules.withDefaults()
}

func (r AcademicRules) withDefaults() AcademicRules {
	if r.DefaultPeriod == "" {
		r.DefaultPeriod = "2024.2"
	}
	if len(r.LockedStatuses) == 0 {
		r.LockedStatuses = []string{"locked", "trancado"}
	}
	if len(r.AvailableStatuses) == 0 {
		r.AvailableStatuses = []string{"Available", "Disponível"}
	}
	if r.ItemStatusReserved == "" {
		r.ItemStatusReserved = "Reserved"
	}
	return r
}

func (r AcademicRules) period(p string) string {
	if p = strings.TrimSpace(p); p != "" {
		return p
	}
	return r.DefaultPeriod
}

// IsLocked reports whether an academic status suspends new enrollments.
func (r AcademicRules) IsLocked(status string) bool {
	for _, locked := range r.LockedStatuses {
		if sameToken(status, locked) {
			return true
		}
	}
	return false
}

// IsAvailable reports whether an item status is one of the reservable values.
func (r AcademicRules) IsAvailable(status string) bool {
	for _, available := range r.AvailableStatuses {
		if sameToken(status, available) {
			return true
		}
	}
	return false
}

// ItemStatusAvailable is the status written when a reservation is released.
func (r AcademicRules) ItemStatusAvailable() string {
	if len(r.AvailableStatuses) == 0 {
		return "Available"
	}
	return r.AvailableStatuses[0]
}

// sameToken compares free-text values ignoring case and surrounding whitespace.
func sameToken(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
