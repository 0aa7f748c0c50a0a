package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/engine"
)

type recommendOptions struct {
	semester   string
	completed  []string
	noExam     bool
	minCredits float64
	expr       string
	query      string
	weights    string
	normalize  bool
	limit      int
	jsonOut    bool
	explain    bool
}

func newRecommendCommand(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend courses for a semester",
		Example: `  courserec recommend --semester 2024-2025-200 --completed 104031,234114 \
      --query "machine learning" --weights semantic=0.5,general_rating=0.5 --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			app, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			recs, err := app.Engine.Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			return writeTable(cmd.OutOrStdout(), recs, opts.explain)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.semester, "semester", "s", "", "Semester, e.g. 2024-2025-200")
	f.StringSliceVar(&opts.completed, "completed", nil, "Completed course ids (comma separated)")
	f.BoolVar(&opts.noExam, "no-exam", false, "Only courses without a final exam")
	f.Float64Var(&opts.minCredits, "min-credits", 0, "Minimum credits")
	f.StringVar(&opts.expr, "expr", "", `Extra CEL constraint, e.g. 'course.faculty == "CS"'`)
	f.StringVarP(&opts.query, "query", "q", "", "Free text interests")
	f.StringVarP(&opts.weights, "weights", "w", "", "Ranking weights: semantic,credits,avg_grade,workload,general_rating (default equal)")
	f.BoolVar(&opts.normalize, "normalize", false, "Rescale weights to sum 1")
	f.IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 = all)")
	f.BoolVar(&opts.jsonOut, "json", false, "Print JSON")
	f.BoolVar(&opts.explain, "explain", false, "Include ranking labels")
	_ = cmd.MarkFlagRequired("semester")

	return cmd
}

func (o *recommendOptions) request() (engine.Request, error) {
	w := core.EqualWeights()
	if o.weights != "" {
		var err error
		if w, err = parseWeights(o.weights); err != nil {
			return engine.Request{}, err
		}
	}
	if o.normalize {
		w = w.Normalized()
	}
	return engine.Request{
		Semester:           o.semester,
		CompletedCourseIDs: o.completed,
		NoExam:             o.noExam,
		MinCredits:         o.minCredits,
		Expr:               o.expr,
		Query:              o.query,
		Weights:            w,
		Limit:              o.limit,
		Explain:            o.explain,
	}, nil
}

// parseWeights 解析 "semantic=0.4,credits=0.1"，未给出的因子权重为 0
func parseWeights(s string) (core.WeightVector, error) {
	var w core.WeightVector
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return w, invalidWeights("expected name=value, got %q", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return w, invalidWeights("weight %s: %v", name, err)
		}
		switch strings.TrimSpace(name) {
		case core.FeatureSemantic:
			w.Semantic = v
		case core.FeatureCredits:
			w.Credits = v
		case core.FeatureAvgGrade:
			w.AvgGrade = v
		case core.FeatureWorkload:
			w.Workload = v
		case core.FeatureGeneralRating:
			w.GeneralRating = v
		default:
			return w, invalidWeights("unknown weight %q (supported: %s)", name, strings.Join(core.FeatureNames, ", "))
		}
	}
	return w, nil
}

func invalidWeights(format string, args ...any) error {
	return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, recs []engine.Recommendation, explain bool) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "no eligible courses")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tCREDITS\tEXAM\tSCORE\tSEMANTIC")
	for i, r := range recs {
		exam := r.ExamDateA
		if exam == "" {
			exam = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\t%.4f\t%.4f\n",
			i+1, r.ID, r.Title, r.Credits, exam, r.CombinedScore, r.SemanticScore)
		if explain {
			for _, k := range sortedKeys(r.Labels) {
				fmt.Fprintf(tw, "\t\t  %s=%s\t\t\t\t\n", k, r.Labels[k])
			}
		}
	}
	return tw.Flush()
}
