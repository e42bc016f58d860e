package domain

// Store is a retail location. Coordinates are decimal degrees. Stores are
// immutable once referenced by historical logs; time logs keep a denormalized
// id/name snapshot so renames never rewrite history.
type Store struct {
	ID      string
	Name    string
	Address string
	Lat     float64
	Lng     float64
}
