package models

// All returns every persisted model in migration order.
func All() []any {
	return []any{
		&Member{},
		&Category{},
		&Author{},
		&Book{},
		&Borrow{},
		&Reservation{},
		&RefreshToken{},
	}
}
