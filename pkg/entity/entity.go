// SPDX-License-Identifier: Apache-2.0

package entity

// ID is the opaque identifier of an entity. It is the document key without
// its keyspace prefix.
type ID string

func (id ID) String() string { return string(id) }

// Constructor builds an entity of type T from its id and the raw data
// returned by the search engine.
type Constructor[T any] func(id ID, data *Data) (T, error)

// Entity is a generic entity exposing the raw data of the document.
type Entity struct {
	ID   ID
	Data *Data
}

// New is a Constructor for generic entities.
func New(id ID, data *Data) (*Entity, error) {
	if data == nil {
		data = NewData()
	}
	return &Entity{ID: id, Data: data}, nil
}

// Decoded returns a Constructor that decodes the entity data into a new T.
// setID, when not nil, is called with the decoded value and the entity id.
func Decoded[T any](setID func(*T, ID)) Constructor[*T] {
	return func(id ID, data *Data) (*T, error) {
		v := new(T)
		if data != nil {
			if err := data.Decode(v); err != nil {
				return nil, err
			}
		}
		if setID != nil {
			setID(v, id)
		}
		return v, nil
	}
}
