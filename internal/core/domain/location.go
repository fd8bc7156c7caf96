package domain

// Location is a best-effort geolocation snapshot derived from an IP address.
// Coordinates are optional; resolvers that cannot determine them leave the
// pointers nil.
type Location struct {
	City      string   `json:"city" bson:"city"`
	Country   string   `json:"country" bson:"country"`
	Region    string   `json:"region" bson:"region"`
	Timezone  string   `json:"timezone" bson:"timezone"`
	Latitude  *float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
}

const (
	unknownPlace     = "Unknown"
	developmentPlace = "Development"
)

// UnknownLocation is the sentinel returned when resolution fails or times
// out. The risk engine treats it as absence of location data.
func UnknownLocation() Location {
	return Location{
		City:     unknownPlace,
		Country:  unknownPlace,
		Region:   unknownPlace,
		Timezone: unknownPlace,
	}
}

// DevelopmentLocation is the sentinel for loopback and private-range IPs.
func DevelopmentLocation() Location {
	return Location{
		City:     developmentPlace,
		Country:  "Local",
		Region:   "Local Environment",
		Timezone: "Local",
	}
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// IsUnknown reports whether the location carries no usable geographic data,
// covering both the unknown and development sentinels.
func (l Location) IsUnknown() bool {
	return l.Country == "" || l.Country == unknownPlace || l.City == developmentPlace
}
