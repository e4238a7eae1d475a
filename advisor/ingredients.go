package advisor

import "strings"

// Ingredient holds nutrient values per pound of dry matter.
type Ingredient struct {
	Name string  `json:"name"`
	TDN  float64 `json:"tdn"`
	NEm  float64 `json:"nem"`
	NEg  float64 `json:"neg"`
	CP   float64 `json:"cp"`
	Ca   float64 `json:"ca"`
	P    float64 `json:"p"`
}

var ingredientTable = [...]Ingredient{
	{Name: "Alfalfa Hay", TDN: 58, NEm: 0.50, NEg: 0.30, CP: 17, Ca: 1.20, P: 0.22},
	{Name: "Corn Silage", TDN: 65, NEm: 0.60, NEg: 0.35, CP: 8, Ca: 0.30, P: 0.22},
	{Name: "Soybean Meal (48%)", TDN: 82, NEm: 0.70, NEg: 0.40, CP: 48, Ca: 0.30, P: 0.65},
	{Name: "Ground Corn", TDN: 88, NEm: 0.90, NEg: 0.65, CP: 9, Ca: 0.02, P: 0.28},
	{Name: "Dicalcium Phosphate", TDN: 0, NEm: 0, NEg: 0, CP: 0, Ca: 23.00, P: 18.00},
	{Name: "Trace Mineral Mix", TDN: 0, NEm: 0, NEg: 0, CP: 0, Ca: 12.00, P: 8.00},
	{Name: "Salt", TDN: 0, NEm: 0, NEg: 0, CP: 0, Ca: 0.00, P: 0.00},
}

// Ingredients returns a copy of the reference table in table order.
func Ingredients() []Ingredient {
	out := make([]Ingredient, len(ingredientTable))
	copy(out, ingredientTable[:])
	return out
}

// AvailableIngredients filters the reference table by exact name. Unknown
// names are ignored.
func AvailableIngredients(excluded []string) []Ingredient {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[strings.TrimSpace(name)] = struct{}{}
	}
	out := make([]Ingredient, 0, len(ingredientTable))
	for _, ingredient := range ingredientTable {
		if _, ok := skip[ingredient.Name]; ok {
			continue
		}
		out = append(out, ingredient)
	}
	return out
}
