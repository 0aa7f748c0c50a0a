package feast

import (
	"testing"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/stretchr/testify/assert"
)

func TestConvertSDKValueRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"string", "104031", "104031"},
		{"int", 3, float64(3)},
		{"int64", int64(4), float64(4)},
		{"float64", 3.5, 3.5},
		{"float32", float32(2.5), 2.5},
		{"bool", true, float64(1)},
		{"bytes", []byte("x"), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertFromSDKValue(convertToSDKValue(tt.input)))
		})
	}
}

func TestConvertFromSDKValueMissing(t *testing.T) {
	assert.Nil(t, convertFromSDKValue(nil))
	v := feastsdk.DoubleVal(1)
	v.Val = nil
	assert.Nil(t, convertFromSDKValue(v))
}

func TestParseEndpoint(t *testing.T) {
	host, port := ParseEndpoint("grpc://feast.local:7000")
	assert.Equal(t, "feast.local", host)
	assert.Equal(t, 7000, port)

	host, port = ParseEndpoint("feast.local")
	assert.Equal(t, "feast.local", host)
	assert.Equal(t, 6565, port)
}
