package entity

import (
	"database/sql/driver"
	"fmt"
)

type UserRole string
type VerificationStatus string
type SubscriptionStatus string
type PaymentStatus string

const (
	UserRoleUser            UserRole = "user"
	UserRoleServiceProvider UserRole = "service_provider"
	UserRoleAdmin           UserRole = "admin"
)

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

const (
	SubscriptionStatusPendingApproval         SubscriptionStatus = "PENDING_APPROVAL"
	SubscriptionStatusApprovedButUnsubscribed SubscriptionStatus = "APPROVED_BUT_UNSUBSCRIBED"
	SubscriptionStatusActive                  SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpired                 SubscriptionStatus = "EXPIRED"
)

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleServiceProvider, UserRoleAdmin:
		return true
	}
	return false
}

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusApproved, VerificationStatusRejected:
		return true
	}
	return false
}

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusPendingApproval,
		SubscriptionStatusApprovedButUnsubscribed,
		SubscriptionStatusActive,
		SubscriptionStatusExpired:
		return true
	}
	return false
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func ParseUserRole(v string) (UserRole, error) {
	r := UserRole(v)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: user role %q", ErrInvalidEnumValue, v)
	}
	return r, nil
}

func ParseVerificationStatus(v string) (VerificationStatus, error) {
	s := VerificationStatus(v)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: verification status %q", ErrInvalidEnumValue, v)
	}
	return s, nil
}

func ParseSubscriptionStatus(v string) (SubscriptionStatus, error) {
	s := SubscriptionStatus(v)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: subscription status %q", ErrInvalidEnumValue, v)
	}
	return s, nil
}

func ParsePaymentStatus(v string) (PaymentStatus, error) {
	s := PaymentStatus(v)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: payment status %q", ErrInvalidEnumValue, v)
	}
	return s, nil
}

// Storage boundary: values are checked on the way in and on the way out.

func (r UserRole) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: user role %q", ErrInvalidEnumValue, string(r))
	}
	return string(r), nil
}

func (r *UserRole) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseUserRole(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (s VerificationStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: verification status %q", ErrInvalidEnumValue, string(s))
	}
	return string(s), nil
}

func (s *VerificationStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseVerificationStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s SubscriptionStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: subscription status %q", ErrInvalidEnumValue, string(s))
	}
	return string(s), nil
}

func (s *SubscriptionStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseSubscriptionStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: payment status %q", ErrInvalidEnumValue, string(s))
	}
	return string(s), nil
}

func (s *PaymentStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParsePaymentStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("%w: NULL", ErrInvalidEnumValue)
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidEnumValue, src)
	}
}
