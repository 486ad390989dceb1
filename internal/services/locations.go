package services

import "github.com/crisiscare/crisiscare-backend/internal/models"

const (
	defaultMapZoom    = 14
	defaultMarkerFill = "#ffffff"
)

// Swoyambhu, Kathmandu.
var defaultMapCenter = models.LatLng{Lat: 27.7149, Lng: 85.2901}

var markerColors = map[string]string{
	"hospital": "#f97316",
	"police":   "#38bdf8",
	"fire":     "#ef4444",
	"shelter":  "#22c55e",
}

// MarkerColor returns the fill colour for a location type.
func MarkerColor(locationType string) string {
	if c, ok := markerColors[locationType]; ok {
		return c
	}
	return defaultMarkerFill
}

// DefaultHelpMap returns the demo emergency-service locations around
// Swoyambhu shown on the help map.
func DefaultHelpMap() models.HelpMap {
	locations := []models.HelpLocation{
		{Title: "Swoyambhu Community Hospital (Demo)", Type: "hospital", LatLng: models.LatLng{Lat: 27.7165, Lng: 85.2918}},
		{Title: "Swoyambhu Area Police Post (Demo)", Type: "police", LatLng: models.LatLng{Lat: 27.7158, Lng: 85.288}},
		{Title: "Ring Road Fire & Rescue Point (Demo)", Type: "fire", LatLng: models.LatLng{Lat: 27.7135, Lng: 85.2935}},
		{Title: "Local Community Relief Shelter (Demo)", Type: "shelter", LatLng: models.LatLng{Lat: 27.7122, Lng: 85.2872}},
	}
	for i := range locations {
		locations[i].Color = MarkerColor(locations[i].Type)
	}
	return models.HelpMap{Center: defaultMapCenter, Zoom: defaultMapZoom, Locations: locations}
}
