package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is a money value read from loosely-typed documents. Numbers stored as strings
// are parsed; anything unparseable, null or non-finite decodes as zero.
type Amount float64

// Float returns the amount as a float64
func (a Amount) Float() float64 {
	return float64(a)
}

// ParseAmount coerces a free-form numeric string, tolerating currency symbols and separators
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "₹$ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Amount(v)
}

// UnmarshalBSONValue implements the bson.ValueUnmarshaler interface
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var raw interface{}
	if err := bson.UnmarshalValue(t, data, &raw); err != nil {
		*a = 0
		return nil
	}

	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			*a = 0
		} else {
			*a = Amount(v)
		}
	case int32:
		*a = Amount(v)
	case int64:
		*a = Amount(v)
	case string:
		*a = ParseAmount(v)
	case primitive.Decimal128:
		*a = ParseAmount(v.String())
	default:
		*a = 0
	}
	return nil
}

// UnmarshalJSON accepts numbers and numeric strings
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*a = 0
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*a = Amount(v)
	case string:
		*a = ParseAmount(v)
	default:
		*a = 0
	}
	return nil
}
