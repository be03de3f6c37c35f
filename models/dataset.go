package models

// Dataset is the full persisted snapshot.
type Dataset struct {
	Users []User `json:"users" bson:"users"`
	Spots []Spot `json:"spots" bson:"spots"`
}

// NewDataset returns an empty snapshot.
func NewDataset() *Dataset {
	return &Dataset{Users: []User{}, Spots: []Spot{}}
}

// FindUser returns a pointer into the dataset so callers can mutate in place.
func (d *Dataset) FindUser(id string) *User {
	for i := range d.Users {
		if d.Users[i].ID == id {
			return &d.Users[i]
		}
	}
	return nil
}

// FindUserByName matches names case-insensitively.
func (d *Dataset) FindUserByName(name string) *User {
	for i := range d.Users {
		if d.Users[i].SameName(name) {
			return &d.Users[i]
		}
	}
	return nil
}

// FindSpot returns a pointer into the dataset.
func (d *Dataset) FindSpot(id string) *Spot {
	for i := range d.Spots {
		if d.Spots[i].ID == id {
			return &d.Spots[i]
		}
	}
	return nil
}

// SpotIndex maps spot ids to spots for repeated lookups.
func (d *Dataset) SpotIndex() map[string]*Spot {
	idx := make(map[string]*Spot, len(d.Spots))
	for i := range d.Spots {
		idx[d.Spots[i].ID] = &d.Spots[i]
	}
	return idx
}

// Normalize fixes nil collections on every entity.
func (d *Dataset) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Spots == nil {
		d.Spots = []Spot{}
	}
	for i := range d.Users {
		d.Users[i].Normalize()
	}
	for i := range d.Spots {
		d.Spots[i].Normalize()
	}
}
