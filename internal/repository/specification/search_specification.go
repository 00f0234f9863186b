package specification

import "gorm.io/gorm"

// ProviderSearchQuery filters providers by name or email
type ProviderSearchQuery struct {
	Query string
}

func (s ProviderSearchQuery) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	// Using ILIKE for Postgres (case insensitive)
	return db.Where("(full_name ILIKE ? OR email ILIKE ?)", pattern, pattern)
}
