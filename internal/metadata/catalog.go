// Package metadata serves the static option lists consumed by frontend
// forms. The catalog is compiled in; there is no persistence behind it.
package metadata

// Option is a selectable entry for a dropdown.
type Option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Catalog groups every option list the forms need.
type Catalog struct {
	Products  []Option `json:"products"`
	UOMs      []Option `json:"uoms"`
	ItemTypes []Option `json:"item_types"`
	Vendors   []Option `json:"vendors"`
}

// DefaultCatalog returns the static catalog. Callers receive a fresh copy
// each time so nobody can mutate the package-level data.
func DefaultCatalog() Catalog {
	return Catalog{
		Products: []Option{
			{Code: "SCI_KIT", Label: "Science Kit"},
			{Code: "ROBO_KIT", Label: "Robotics Kit"},
			{Code: "MATH_KIT", Label: "Math Lab Kit"},
			{Code: "LANG_KIT", Label: "Language Lab Kit"},
			{Code: "LAB_MANUAL", Label: "Lab Manual"},
			{Code: "SMART_BOARD", Label: "Smart Board"},
			{Code: "TRAINING", Label: "Teacher Training"},
		},
		UOMs: []Option{
			{Code: "PCS", Label: "Pieces"},
			{Code: "SET", Label: "Set"},
			{Code: "BOX", Label: "Box"},
			{Code: "KIT", Label: "Kit"},
			{Code: "SESSION", Label: "Session"},
		},
		ItemTypes: []Option{
			{Code: "CONSUMABLE", Label: "Consumable"},
			{Code: "EQUIPMENT", Label: "Equipment"},
			{Code: "SERVICE", Label: "Service"},
		},
		Vendors: []Option{
			{Code: "EDUSUPPLY", Label: "EduSupply Traders"},
			{Code: "BRIGHTLAB", Label: "BrightLab Instruments"},
			{Code: "CLASSMATE", Label: "Classmate Distributors"},
			{Code: "NOVATECH", Label: "NovaTech Learning"},
		},
	}
}
