package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 课程推荐中常见的 key：recall_source、filtered、rank_model、rating_source。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / feature / rank / rerank
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// LabelValues 把 Label 表压平成 key -> value，用于输出解释信息。
func LabelValues(labels map[string]Label) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v.Value
	}
	return out
}
