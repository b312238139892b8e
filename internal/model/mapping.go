package model

// SiteMapping holds the reference attributes of one site.
type SiteMapping struct {
	Site              string  `db:"site" json:"site" yaml:"site"`
	StateCode         string  `db:"state_code" json:"state_code" yaml:"state_code"`
	StateName         string  `db:"state_name" json:"state_name" yaml:"state_name"`
	Technology        string  `db:"technology" json:"technology" yaml:"technology"`
	Connectivity      string  `db:"connectivity" json:"connectivity" yaml:"connectivity"`
	PowerSaleCategory string  `db:"power_sale_category" json:"power_sale_category" yaml:"power_sale_category"`
	QCA               string  `db:"qca" json:"qca" yaml:"qca"`
	PlantCapacityMW   float64 `db:"plant_capacity_mw" json:"plant_capacity_mw" yaml:"plant_capacity_mw"`
	PPARate           float64 `db:"ppa_rate" json:"ppa_rate" yaml:"ppa_rate"`
}
