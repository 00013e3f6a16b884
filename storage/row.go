package storage

import (
	"github.com/goccy/go-json"
)

// Row is one durable key-value pair of a node store.
type Row struct {
	Key   string `json:"key" bson:"_id"`
	Value string `json:"value" bson:"value"`
}

func (r *Row) String() string {
	byt, _ := json.Marshal(r)
	return string(byt)
}
