package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"1500", 1500},
		{" 99.5 ", 99.5},
		{"₹1,200", 1200},
		{"$ 20", 20},
		{"", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"-40", -40},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in))
		})
	}
}

func TestAmountUnmarshalJSON(t *testing.T) {
	var o struct {
		Number Amount `json:"number"`
		Text   Amount `json:"text"`
		Null   Amount `json:"null"`
		Bogus  Amount `json:"bogus"`
	}
	err := json.Unmarshal([]byte(`{"number": 12.5, "text": "₹3,000", "null": null, "bogus": {"a": 1}}`), &o)
	require.NoError(t, err)
	assert.Equal(t, Amount(12.5), o.Number)
	assert.Equal(t, Amount(3000), o.Text)
	assert.Zero(t, o.Null)
	assert.Zero(t, o.Bogus)
}

func TestAmountUnmarshalBSON(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"double": 10.25,
		"int32":  int32(7),
		"int64":  int64(1 << 40),
		"string": "2,500",
		"nan":    math.NaN(),
		"null":   nil,
		"bool":   true,
	})
	require.NoError(t, err)

	var doc struct {
		Double Amount `bson:"double"`
		Int32  Amount `bson:"int32"`
		Int64  Amount `bson:"int64"`
		String Amount `bson:"string"`
		NaN    Amount `bson:"nan"`
		Null   Amount `bson:"null"`
		Bool   Amount `bson:"bool"`
	}
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, Amount(10.25), doc.Double)
	assert.Equal(t, Amount(7), doc.Int32)
	assert.Equal(t, Amount(1<<40), doc.Int64)
	assert.Equal(t, Amount(2500), doc.String)
	assert.Zero(t, doc.NaN)
	assert.Zero(t, doc.Null)
	assert.Zero(t, doc.Bool)
}
