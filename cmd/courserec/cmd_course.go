package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rushteam/courserec/core"
)

func newCourseCommand(root *rootOptions) *cobra.Command {
	var (
		semester string
		jsonOut  bool
	)
	cmd := &cobra.Command{
		Use:   "course <id>",
		Short: "Show one course of a semester",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			c, ok, err := app.Engine.GetCourseByID(cmd.Context(), args[0], semester)
			if err != nil {
				return err
			}
			if !ok {
				return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
					fmt.Sprintf("course %s not found in %s", args[0], semester))
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			return writeCourse(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVarP(&semester, "semester", "s", "", "Semester, e.g. 2024-2025-200")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("semester")
	return cmd
}

func writeCourse(w io.Writer, c *core.Course) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", c.ID)
	fmt.Fprintf(tw, "Title\t%s\n", c.Title)
	fmt.Fprintf(tw, "Credits\t%.1f\n", c.Credits)
	if c.Faculty != "" {
		fmt.Fprintf(tw, "Faculty\t%s\n", c.Faculty)
	}
	fmt.Fprintf(tw, "Exam\t%s\n", orDash(strings.TrimSpace(c.ExamDateA+" "+c.ExamDateB)))
	fmt.Fprintf(tw, "Prerequisites\t%s\n", orDash(formatPrerequisites(c.Prerequisites)))
	fmt.Fprintf(tw, "Average grade\t%.1f\n", c.AverageGrade())
	fmt.Fprintf(tw, "Workload\t%s\n", formatRating(c.WorkloadRating))
	fmt.Fprintf(tw, "Rating\t%s\n", formatRating(c.GeneralRating))
	if c.Description != "" {
		fmt.Fprintf(tw, "Description\t%s\n", c.Description)
	}
	return tw.Flush()
}

// formatPrerequisites: (A and B) or C
func formatPrerequisites(p core.Prerequisites) string {
	groups := make([]string, 0, len(p))
	for _, g := range p {
		if len(g) == 0 {
			continue
		}
		if len(g) == 1 {
			groups = append(groups, g[0])
			continue
		}
		groups = append(groups, "("+strings.Join(g, " and ")+")")
	}
	return strings.Join(groups, " or ")
}

func formatRating(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f/5", *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
