// Package catalog holds the static brand/model reference data used to
// cross-check car submissions.
package catalog

// OtherSentinel skips the catalog cross-check: users picking it supply
// a free-form brand or model.
const OtherSentinel = "Другая"

// brands maps a brand to its known models.
var brands = map[string][]string{
	"Audi":          {"A3", "A4", "A5", "A6", "A7", "A8", "Q3", "Q5", "Q7", "Q8", "TT"},
	"BMW":           {"1 серия", "3 серия", "5 серия", "7 серия", "X1", "X3", "X5", "X6", "X7"},
	"Chevrolet":     {"Aveo", "Cobalt", "Cruze", "Lacetti", "Niva", "Spark", "Tahoe"},
	"Daewoo":        {"Gentra", "Matiz", "Nexia"},
	"Ford":          {"EcoSport", "Explorer", "Fiesta", "Focus", "Kuga", "Mondeo", "Transit"},
	"Honda":         {"Accord", "CR-V", "Civic", "Fit", "Pilot"},
	"Hyundai":       {"Accent", "Creta", "Elantra", "Santa Fe", "Solaris", "Sonata", "Tucson"},
	"Kia":           {"Ceed", "Cerato", "K5", "Optima", "Picanto", "Rio", "Sorento", "Sportage"},
	"Lada":          {"2107", "2110", "2114", "Granta", "Kalina", "Largus", "Niva", "Priora", "Vesta", "XRAY"},
	"Lexus":         {"ES", "GX", "LX", "NX", "RX"},
	"Mazda":         {"3", "6", "CX-5", "CX-7", "CX-9"},
	"Mercedes-Benz": {"A-класс", "C-класс", "E-класс", "G-класс", "GLC", "GLE", "GLS", "S-класс"},
	"Mitsubishi":    {"ASX", "Lancer", "Outlander", "Pajero"},
	"Nissan":        {"Almera", "Juke", "Murano", "Note", "Patrol", "Qashqai", "Teana", "X-Trail"},
	"Opel":          {"Astra", "Corsa", "Insignia", "Vectra", "Zafira"},
	"Renault":       {"Arkana", "Duster", "Kaptur", "Logan", "Megane", "Sandero"},
	"Skoda":         {"Fabia", "Kodiaq", "Octavia", "Rapid", "Superb", "Yeti"},
	"Toyota":        {"Camry", "Corolla", "Highlander", "Land Cruiser", "Land Cruiser Prado", "RAV4"},
	"Volkswagen":    {"Golf", "Jetta", "Passat", "Polo", "Tiguan", "Touareg"},
	"Volvo":         {"S60", "S90", "XC60", "XC90"},
	"УАЗ":           {"Патриот", "Хантер", "Буханка"},
	"ГАЗ":           {"Газель", "Соболь", "Волга"},
}

// HasBrand reports whether the brand exists in the catalog.
func HasBrand(brand string) bool {
	_, ok := brands[brand]
	return ok
}

// HasModel reports whether the model is known for the brand.
func HasModel(brand, model string) bool {
	for _, m := range brands[brand] {
		if m == model {
			return true
		}
	}
	return false
}
