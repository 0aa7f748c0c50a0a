package main

import (
	"context"
	"fmt"

	"github.com/rushteam/courserec/catalog"
	"github.com/rushteam/courserec/config"
	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/feature"
	"github.com/rushteam/courserec/store"
)

const demoSemester = "2024-2025-200"

func rating(v float64) *float64 { return &v }

// demoCourses 是 --demo 使用的示例目录
func demoCourses() []*core.Course {
	return []*core.Course{
		{
			ID: "104031", Title: "Infinitesimal Calculus 1M", Credits: 5.5, Faculty: "Mathematics",
			ExamDateA: "2025-02-03", ExamDateB: "2025-03-10",
			HistoricalGrades: map[string]float64{"2023-2024-200": 72.4, "2022-2023-200": 69.8},
			Description:      "Limits, continuity, derivatives and integrals of functions of one variable.",
		},
		{
			ID: "234114", Title: "Introduction to Computer Science M", Credits: 4, Faculty: "Computer Science",
			ExamDateA: "2025-02-12", ExamDateB: "2025-03-18",
			HistoricalGrades: map[string]float64{"2023-2024-200": 78.1},
			Description:      "Programming in C, recursion, complexity, sorting and basic data structures.",
		},
		{
			ID: "234218", Title: "Data Structures 1", Credits: 3, Faculty: "Computer Science",
			ExamDateA:     "2025-02-20",
			Prerequisites: core.Prerequisites{{"234114"}},
			Description:   "Trees, hashing, heaps and amortized analysis.",
		},
		{
			ID: "236501", Title: "Introduction to Artificial Intelligence", Credits: 3, Faculty: "Computer Science",
			ExamDateA:        "2025-02-25",
			Prerequisites:    core.Prerequisites{{"234218", "094412"}},
			HistoricalGrades: map[string]float64{"2023-2024-200": 84.0},
			Description:      "Search, planning, games, learning and reasoning under uncertainty.",
		},
		{
			ID: "236756", Title: "Introduction to Machine Learning", Credits: 3, Faculty: "Computer Science",
			Prerequisites:    core.Prerequisites{{"094412", "104031"}},
			HistoricalGrades: map[string]float64{"2023-2024-200": 81.5},
			Description:      "Supervised learning, linear models, kernels, neural networks and generalization. Project based, no exam.",
		},
		{
			ID: "094412", Title: "Probability M", Credits: 4, Faculty: "Industrial Engineering",
			ExamDateA:        "2025-02-07",
			Prerequisites:    core.Prerequisites{{"104031"}},
			HistoricalGrades: map[string]float64{"2023-2024-200": 70.2},
			Description:      "Probability spaces, random variables, expectation and limit theorems.",
		},
		{
			ID: "039401", Title: "Physical Education: Swimming", Credits: 1, Faculty: "Sport",
			Description: "Swimming technique for beginners.",
		},
		{
			ID: "324033", Title: "English for Advanced Students", Credits: 3, Faculty: "Humanities",
			Description: "Academic reading and writing in English.",
		},
	}
}

// demoRatings 评分只放在评分存储中，演示评分补全
var demoRatings = map[string]core.CourseRatings{
	"104031": {Workload: rating(2.1), General: rating(3.4)},
	"234114": {Workload: rating(2.8), General: rating(4.1)},
	"236756": {Workload: rating(3.5), General: rating(4.6)},
	"039401": {Workload: rating(4.9), General: rating(4.8)},
}

// openDemo 用内存存储 + HashEmbedder + 内存向量索引组装运行时
func openDemo(ctx context.Context, debug bool) (*config.App, error) {
	kv := store.NewMemoryStore()
	if err := catalog.NewStoreSource(kv).SaveSemester(ctx, demoSemester, demoCourses()); err != nil {
		return nil, fmt.Errorf("seed demo catalog: %w", err)
	}
	ratings := feature.NewStoreRatingProvider(kv, "")
	for id, r := range demoRatings {
		if err := ratings.Put(ctx, id, r); err != nil {
			return nil, fmt.Errorf("seed demo ratings: %w", err)
		}
	}

	s := config.DefaultSettings()
	s.Log.Level = "warn"
	if debug {
		s.Log.Level = "debug"
	}
	s.Log.Format = "console"
	s.Catalog.Source = "redis"
	s.Ratings.Source = "redis"
	s.Index.Backend = "memory"
	s.Embedding.Backend = "hash"
	s.Embedding.Dimension = 256
	s.Semesters = map[string]string{demoSemester: "courses_2024_2025_200"}
	return config.BootstrapWith(ctx, &s, &config.Overrides{Store: kv})
}
