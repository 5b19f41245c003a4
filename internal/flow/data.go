package flow

import "fmt"

// Data holds the values collected by a flow, keyed by step field
type Data map[string]any

func (d Data) String(key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (d Data) Int64(key string) int64 {
	v, _ := d[key].(int64)
	return v
}

// Input returns a raw message stored by Any
func (d Data) Input(key string) Input {
	v, _ := d[key].(Input)
	return v
}

func (d Data) clone() Data {
	c := make(Data, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}
