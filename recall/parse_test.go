package recall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/courserec/core"
)

func TestParseCourse(t *testing.T) {
	meta := map[string]any{
		MetaCourseID:      "00940345",
		MetaTitle:         "Discrete Mathematics",
		MetaCredits:       "4.0",
		MetaExamA:         "2025-01-20",
		MetaExamB:         "",
		MetaPrerequisites: `[["104031"],["104166","104016"]]`,
		MetaAvgGrades:     `{"2023-2024-200": 72.5, "2022-2023-200": 77.5}`,
		MetaWorkload:      3.5,
		MetaGeneral:       "4",
		MetaReviews:       "heavy but fair",
	}
	c, err := ParseCourse("rec-1", meta)
	require.NoError(t, err)
	assert.Equal(t, "00940345", c.ID)
	assert.Equal(t, "Discrete Mathematics", c.Title)
	assert.Equal(t, 4.0, c.Credits)
	assert.True(t, c.HasExam())
	assert.Equal(t, core.Prerequisites{{"104031"}, {"104166", "104016"}}, c.Prerequisites)
	assert.InDelta(t, 75.0, c.AverageGrade(), 1e-9)
	require.NotNil(t, c.WorkloadRating)
	assert.Equal(t, 3.5, *c.WorkloadRating)
	require.NotNil(t, c.GeneralRating)
	assert.Equal(t, 4.0, *c.GeneralRating)
	assert.Equal(t, "heavy but fair", c.ReviewsSummaryRaw)
}

func TestParseCourseFallbacks(t *testing.T) {
	c, err := ParseCourse("234114", map[string]any{
		MetaWorkload: 7.0,
		MetaGeneral:  "n/a",
	})
	require.NoError(t, err)
	assert.Equal(t, "234114", c.ID)
	assert.Zero(t, c.Credits)
	assert.Nil(t, c.WorkloadRating)
	assert.Nil(t, c.GeneralRating)
	assert.Empty(t, c.Prerequisites)
	assert.Equal(t, core.DefaultAverageGrade, c.AverageGrade())
}

func TestParseCourseMalformed(t *testing.T) {
	tests := []struct {
		name     string
		recordID string
		meta     map[string]any
	}{
		{name: "no id", meta: map[string]any{MetaTitle: "x"}},
		{name: "bad credits", recordID: "1", meta: map[string]any{MetaCredits: "three"}},
		{name: "negative credits", recordID: "1", meta: map[string]any{MetaCredits: -1.0}},
		{name: "bad prerequisites", recordID: "1", meta: map[string]any{MetaPrerequisites: "[[1,"}},
		{name: "prerequisites not groups", recordID: "1", meta: map[string]any{MetaPrerequisites: []any{42.0}}},
		{name: "bad grades", recordID: "1", meta: map[string]any{MetaAvgGrades: "{"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCourse(tt.recordID, tt.meta)
			require.Error(t, err)
			assert.True(t, core.IsMalformed(err))
		})
	}
}

func TestParsePrerequisites(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want core.Prerequisites
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty string", in: "", want: nil},
		{name: "empty list", in: "[]", want: nil},
		{name: "one empty group", in: "[[]]", want: core.Prerequisites{{}}},
		{name: "native", in: []any{[]any{"1", "2"}, []any{"3"}}, want: core.Prerequisites{{"1", "2"}, {"3"}}},
		{name: "numeric ids", in: []any{[]any{104031.0}}, want: core.Prerequisites{{"104031"}}},
		{name: "typed", in: [][]string{{"5"}}, want: core.Prerequisites{{"5"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrerequisites(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCourseMetadataRoundTrip(t *testing.T) {
	w, g := 2.5, 4.5
	in := &core.Course{
		ID:               "104031",
		Title:            "Calculus 1M",
		Credits:          5.5,
		ExamDateA:        "2025-02-01",
		Prerequisites:    core.Prerequisites{{"104016"}},
		HistoricalGrades: map[string]float64{"2023-2024-200": 70},
		WorkloadRating:   &w,
		GeneralRating:    &g,
		Description:      "limits",
	}
	out, err := ParseCourse("", CourseMetadata(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
