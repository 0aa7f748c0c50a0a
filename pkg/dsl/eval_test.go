package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{expr: "course.credits >= 3.0"},
		{expr: `!course.has_exam && course.faculty == "IE"`},
		{expr: "course.credits +", wantErr: true},
		{expr: `"text"`, wantErr: true},
		{expr: "unknown_var > 1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, prg)
		})
	}
}

func TestEvalRun(t *testing.T) {
	workload := 2.5
	it := core.NewItem(&core.Course{ID: "1", Credits: 3, Faculty: "IE", WorkloadRating: &workload})

	tests := []struct {
		expr    string
		want    bool
		wantErr bool
	}{
		{expr: "course.credits >= 3.0", want: true},
		{expr: `course.faculty == "CS"`, want: false},
		{expr: "course.workload != null && course.workload <= 3.0", want: true},
		{expr: "course.general == null", want: true},
		{expr: "course.missing_field > 1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := NewEval(it).Run(prg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ok, err := NewEval(it).Run(nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
