package job

// DefaultCategories are swept when a job does not name a category.
var DefaultCategories = []string{
	"Restaurantes",
	"Cafeterías",
	"Dentistas",
	"Gimnasios",
	"Barberías",
	"Centros de estética",
	"Consultorios médicos",
	"Agencias de viajes",
	"Fotografía",
	"Florerías",
}

// PerCategoryLimit splits limit across n categories. A single requested
// category gets the whole limit; a sweep gets an even share of at least 1.
func PerCategoryLimit(limit, n int, single bool) int {
	if single || n <= 1 {
		return limit
	}
	return max(1, limit/n)
}
