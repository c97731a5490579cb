package db

import (
	"errors"

	"github.com/lalithlochan/returns-notifier/internal/complaint"
)

// ErrStatusNotFound is returned when a status code has no name in the catalog.
var ErrStatusNotFound = errors.New("status not found")

// sellerRow mirrors the sellers table. locale is nullable.
type sellerRow struct {
	ID     int64
	Name   string
	Locale *string
}

func (r sellerRow) toDomain() *complaint.Seller {
	return &complaint.Seller{
		ID:     r.ID,
		Name:   r.Name,
		Locale: deref(r.Locale),
	}
}

// contractorRow mirrors the contractors table. Every text column except type
// is nullable.
type contractorRow struct {
	ID        int64
	SellerID  int64
	Type      string
	Name      *string
	FirstName *string
	LastName  *string
	Email     *string
	Mobile    *string
}

func (r contractorRow) toDomain() *complaint.Contractor {
	return &complaint.Contractor{
		ID:        r.ID,
		SellerID:  r.SellerID,
		Type:      r.Type,
		Name:      deref(r.Name),
		FirstName: deref(r.FirstName),
		LastName:  deref(r.LastName),
		Email:     deref(r.Email),
		Mobile:    deref(r.Mobile),
	}
}

type employeeRow struct {
	ID        int64
	FirstName *string
	LastName  *string
}

func (r employeeRow) toDomain() *complaint.Employee {
	return &complaint.Employee{
		ID:        r.ID,
		FirstName: deref(r.FirstName),
		LastName:  deref(r.LastName),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
