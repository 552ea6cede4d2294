package models

import (
	"strings"
	"time"

	dErrors "registrar/pkg/domain-errors"
)

// Field limits enforced here and mirrored by the store DDL.
const (
	MaxNameLength      = 200
	MaxAddressLength   = 300
	MaxPrincipalLength = 150
)

// DefaultPrincipalName is stored when a school is created without a named
// principal. A school without one is under-specified, not malformed.
const DefaultPrincipalName = "Principal not assigned"

// MaxValidTo is the open-interval sentinel marking the current version.
var MaxValidTo = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// School is the aggregate root for a school record.
//
// Invariants:
//   - Name, Address and PrincipalName are non-empty within their limits
//   - ID is store-assigned, immutable, and never reused; it is the
//     version-group key across the temporal history
//   - CreatedAt is the first-ever creation instant and is copied verbatim
//     into every subsequent version row; updates never touch it
//   - RowVersion increments once per update of the current row
type School struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	PrincipalName string    `json:"principalName"`
	CreatedAt     time.Time `json:"createdAt"`
	RowVersion    int64     `json:"rowVersion"`
}

// Version is one row of a school's temporal history. ValidTo equals
// MaxValidTo for the current version and is a closed instant for
// superseded rows. History rows are immutable once written.
type Version struct {
	School
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
}

// IsCurrent reports whether this version is the open (current) row.
func (v Version) IsCurrent() bool {
	return v.ValidTo.Equal(MaxValidTo)
}

// Overlaps reports whether the version's validity interval intersects
// [from, to]: validFrom <= to AND validTo >= from.
func (v Version) Overlaps(from, to time.Time) bool {
	return !v.ValidFrom.After(to) && !v.ValidTo.Before(from)
}

// NewSchool validates invariants and builds an unsaved school. The store
// assigns the identity on Add.
func NewSchool(name, address, principalName string, createdAt time.Time) (*School, error) {
	s := &School{
		Name:          strings.TrimSpace(name),
		Address:       strings.TrimSpace(address),
		PrincipalName: strings.TrimSpace(principalName),
		CreatedAt:     createdAt.UTC(),
	}
	if s.PrincipalName == "" {
		s.PrincipalName = DefaultPrincipalName
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the field invariants.
func (s *School) Validate() error {
	if s.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "school name cannot be empty")
	}
	if len(s.Name) > MaxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "school name exceeds maximum length")
	}
	if s.Address == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "school address cannot be empty")
	}
	if len(s.Address) > MaxAddressLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "school address exceeds maximum length")
	}
	if s.PrincipalName == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "principal name cannot be empty")
	}
	if len(s.PrincipalName) > MaxPrincipalLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "principal name exceeds maximum length")
	}
	return nil
}

// ApplyUpdate copies the mutable fields from src. Identity, CreatedAt and
// RowVersion are owned by the store and stay untouched.
func (s *School) ApplyUpdate(src *School) {
	s.Name = src.Name
	s.Address = src.Address
	s.PrincipalName = src.PrincipalName
}
