package entity

// Origin identifies which source produced a record instance in a response.
// It is stamped by the merge layer on the way out and is never accepted
// from input nor persisted.
type Origin string

const (
	OriginExternal Origin = "EXTERNAL"
	OriginInternal Origin = "INTERNAL"
)

// Geo is a lat/lng pair carried as strings, matching the upstream API shape.
type Geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Address is the nested postal address of a user record.
type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     Geo    `json:"geo"`
}

// User is a user record from either source. The Origin field serializes as
// `type` and is output-only; id uniqueness is scoped per origin, so a merged
// response may carry the same id twice with different origins.
type User struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
	Origin   Origin  `json:"type,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// WithOrigin returns a copy of u with the origin stamped. The input value is
// never mutated and no other field changes.
func WithOrigin(u User, o Origin) User {
	u.Origin = o
	return u
}

// TagAll returns a new slice with every record stamped with o, in the same
// order as the input.
func TagAll(users []User, o Origin) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = WithOrigin(u, o)
	}
	return out
}
