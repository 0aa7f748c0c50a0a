package feast

import (
	"context"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/conv"
)

// 课程评分特征视图
const (
	DefaultRatingFeatureView = "course_ratings"
	DefaultEntityKey         = "course_id"
)

// RatingProvider 从 Feast 在线特征读取课程评分（0-5），实现 core.RatingProvider。
//
//	course_ratings:workload  负载评分
//	course_ratings:general   总体评分
type RatingProvider struct {
	client      Client
	FeatureView string
	EntityKey   string
	Project     string
}

func NewRatingProvider(client Client, project string) *RatingProvider {
	return &RatingProvider{
		client:      client,
		FeatureView: DefaultRatingFeatureView,
		EntityKey:   DefaultEntityKey,
		Project:     project,
	}
}

func (p *RatingProvider) Name() string { return "feast" }

func (p *RatingProvider) workloadRef() string { return p.FeatureView + ":workload" }
func (p *RatingProvider) generalRef() string  { return p.FeatureView + ":general" }

// BatchGetRatings 返回 courseID -> 评分，两项评分都缺失的课程不出现在结果中。
func (p *RatingProvider) BatchGetRatings(ctx context.Context, courseIDs []string) (map[string]core.CourseRatings, error) {
	out := make(map[string]core.CourseRatings, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	rows := make([]map[string]any, len(courseIDs))
	for i, id := range courseIDs {
		rows[i] = map[string]any{p.EntityKey: id}
	}
	resp, err := p.client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{p.workloadRef(), p.generalRef()},
		EntityRows: rows,
		Project:    p.Project,
	})
	if err != nil {
		return nil, err
	}

	for i, fv := range resp.FeatureVectors {
		if i >= len(courseIDs) {
			break
		}
		r := core.CourseRatings{
			Workload: ratingValue(fv.Values[p.workloadRef()]),
			General:  ratingValue(fv.Values[p.generalRef()]),
		}
		if r.Workload != nil || r.General != nil {
			out[courseIDs[i]] = r
		}
	}
	return out, nil
}

// ratingValue 只接受 [0,5] 内的数值
func ratingValue(v any) *float64 {
	f, ok := conv.ToFloat64(v)
	if !ok || f < 0 || f > 5 {
		return nil
	}
	return &f
}

var _ core.RatingProvider = (*RatingProvider)(nil)
