package models

// Route is an ordered list of hall identifiers
type Route []string

// RouteStep is a single free-text direction
type RouteStep = string

// Coordinate is the (x, y) position of a hall
type Coordinate struct {
	Hall string  `json:"hall"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// RouteResponse is the payload of the route endpoint
type RouteResponse struct {
	Route       Route        `json:"route"`
	Directions  []RouteStep  `json:"directions"`
	Coordinates []Coordinate `json:"coordinates"`
}
