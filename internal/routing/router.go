package routing

import (
	"fmt"
	"sort"

	apperrors "go-hallnav/internal/errors"
	"go-hallnav/pkg/models"
)

// Entrance is the fallback starting point present in every locations table
const Entrance = "Entrance"

const (
	// AlreadyThere is the only direction for a route with fewer than two halls
	AlreadyThere = "You are already at your destination."
	arrived      = "You have arrived at your destination."
)

// Point is a position on the campus display grid
type Point struct {
	X float64
	Y float64
}

// Locations is the immutable known-locations table
type Locations struct {
	points map[string]Point
}

// NewLocations copies points into a table, adding Entrance at the origin when absent
func NewLocations(points map[string]Point) Locations {
	copied := make(map[string]Point, len(points)+1)
	for name, p := range points {
		copied[name] = p
	}
	if _, ok := copied[Entrance]; !ok {
		copied[Entrance] = Point{}
	}
	return Locations{points: copied}
}

// DefaultLocations is the table used when no halls are registered
func DefaultLocations() Locations {
	return NewLocations(map[string]Point{
		Entrance:    {X: 0, Y: 0},
		"Hall_A101": {X: 1, Y: 2},
		"Hall_B202": {X: 3, Y: 5},
		"Library":   {X: 5, Y: 1},
	})
}

// LoadLocations places each hall at (latitude, longitude)
func LoadLocations(halls []models.Hall) Locations {
	if len(halls) == 0 {
		return DefaultLocations()
	}
	points := make(map[string]Point, len(halls))
	for _, h := range halls {
		points[h.Name] = Point{X: h.Latitude, Y: h.Longitude}
	}
	return NewLocations(points)
}

// Lookup returns the position of name
func (l Locations) Lookup(name string) (Point, bool) {
	p, ok := l.points[name]
	return p, ok
}

// Names returns every known location, sorted
func (l Locations) Names() []string {
	names := make([]string, 0, len(l.points))
	for name := range l.points {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Router computes direct routes between known locations
type Router struct {
	locations Locations
}

func NewRouter(locations Locations) *Router {
	return &Router{locations: locations}
}

// Locations returns the table the router resolves names against
func (r *Router) Locations() Locations {
	return r.locations
}

// ComputeRoute returns [start, end]. Callers reject start == end beforehand.
func (r *Router) ComputeRoute(start, end string) (models.Route, error) {
	for _, name := range []string{start, end} {
		if _, ok := r.locations.Lookup(name); !ok {
			return nil, apperrors.NewValidationError(apperrors.KindUnknownLocation,
				fmt.Sprintf("Unknown location: %s", name), nil)
		}
	}
	return models.Route{start, end}, nil
}

// TurnByTurn renders templated directions for route
func (r *Router) TurnByTurn(route models.Route) []models.RouteStep {
	if len(route) < 2 {
		return []models.RouteStep{AlreadyThere}
	}

	steps := make([]models.RouteStep, 0, len(route)+1)
	steps = append(steps, fmt.Sprintf("Start at %s.", route[0]))
	for _, next := range route[1:] {
		steps = append(steps, fmt.Sprintf("Proceed to %s.", next))
	}
	return append(steps, arrived)
}

// Coordinates returns the position of every hall in route that has one
func (r *Router) Coordinates(route models.Route) []models.Coordinate {
	coords := make([]models.Coordinate, 0, len(route))
	for _, name := range route {
		p, ok := r.locations.Lookup(name)
		if !ok {
			continue
		}
		coords = append(coords, models.Coordinate{Hall: name, X: p.X, Y: p.Y})
	}
	return coords
}

// Plan computes a route with its directions and coordinates
func (r *Router) Plan(start, end string) (models.RouteResponse, error) {
	route, err := r.ComputeRoute(start, end)
	if err != nil {
		return models.RouteResponse{}, err
	}
	return models.RouteResponse{
		Route:       route,
		Directions:  r.TurnByTurn(route),
		Coordinates: r.Coordinates(route),
	}, nil
}
