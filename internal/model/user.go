package model

// Default map centre used when the user has no usable coordinates.
const (
	DefaultLatitude  = 51.505
	DefaultLongitude = -0.09
)

// UserSession is the authenticated user's profile.
type UserSession struct {
	Name           string  `json:"name"`
	Location       string  `json:"location"`
	Latitude       float64 `json:"latitude" validate:"latitude"`
	Longitude      float64 `json:"longitude" validate:"longitude"`
	HasCoordinates bool    `json:"has_coordinates"`
}

// ManagedUser is a row of the agency user list.
type ManagedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
