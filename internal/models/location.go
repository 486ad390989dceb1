package models

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HelpLocation is one emergency-service marker shown on the help map.
type HelpLocation struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	LatLng
	Color string `json:"color"`
}

// HelpMap is the payload the front-end map widget is initialised from.
type HelpMap struct {
	Center    LatLng         `json:"center"`
	Zoom      int            `json:"zoom"`
	Locations []HelpLocation `json:"locations"`
}
