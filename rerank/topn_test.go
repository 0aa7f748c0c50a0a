package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

func TestTopNNode(t *testing.T) {
	items := []*core.Item{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	tests := []struct {
		name   string
		n      int
		params map[string]any
		want   int
	}{
		{name: "no limit", n: 0, want: 3},
		{name: "node limit", n: 2, want: 2},
		{name: "limit above size", n: 10, want: 3},
		{name: "request limit wins", n: 2, params: map[string]any{ParamLimit: 1}, want: 1},
		{name: "zero request limit ignored", n: 2, params: map[string]any{ParamLimit: 0}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), &core.RecommendContext{Params: tt.params}, items)
			require.NoError(t, err)
			assert.Len(t, out, tt.want)
			assert.Equal(t, "1", out[0].ID)
		})
	}
}
