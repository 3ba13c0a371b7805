package domain

// PropertyOption is one selectable property row from the PMS listing.
type PropertyOption struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// UnitTypeOption is a bookable room/apartment category within a property.
type UnitTypeOption struct {
	ID          int64  `json:"id"`
	PropertyID  int64  `json:"property_id"`
	DisplayName string `json:"display_name"`
}

// SalesChannelOption attributes a reservation to a distribution channel.
type SalesChannelOption struct {
	ID             int64   `json:"id"`
	PropertyID     int64   `json:"property_id"`
	DisplayName    string  `json:"display_name"`
	CommissionRate float64 `json:"commission_rate"`
}

// OptionsCatalog is the aggregate cached artifact. It is rebuilt wholesale and
// never partially mutated; every key in the maps corresponds to a property in
// PropertyOptions.
type OptionsCatalog struct {
	PropertyOptions         []PropertyOption               `json:"property_options"`
	UnitTypesByProperty     map[int64][]UnitTypeOption     `json:"unit_types_by_property"`
	SalesChannelsByProperty map[int64][]SalesChannelOption `json:"sales_channels_by_property"`
}

// EmptyCatalog returns a well-formed catalog with no entries. Read paths degrade
// to this instead of raising.
func EmptyCatalog() *OptionsCatalog {
	return &OptionsCatalog{
		PropertyOptions:         []PropertyOption{},
		UnitTypesByProperty:     map[int64][]UnitTypeOption{},
		SalesChannelsByProperty: map[int64][]SalesChannelOption{},
	}
}
