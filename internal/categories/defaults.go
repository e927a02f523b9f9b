package categories

// DefaultNames returns the expense categories a new user starts with.
func DefaultNames() []string {
	return []string{
		"Carnicería",
		"Verdulería",
		"Granja",
		"Huevos",
		"Nafta",
		"Resumen Visa Galicia",
		"Resumen Carrefour",
		"Gym",
		"Tenis Telefonos",
	}
}
