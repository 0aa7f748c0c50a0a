package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rushteam/courserec/core"
	"github.com/rushteam/courserec/pkg/logging"
	"github.com/rushteam/courserec/pkg/metrics"
	"github.com/rushteam/courserec/recall"
)

const schema = `
CREATE TABLE IF NOT EXISTS courses (
	semester        TEXT NOT NULL,
	course_id       TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	credits         REAL,
	moed_a          TEXT NOT NULL DEFAULT '',
	moed_b          TEXT NOT NULL DEFAULT '',
	faculty         TEXT NOT NULL DEFAULT '',
	prerequisites   TEXT NOT NULL DEFAULT '[]',
	avg_grades      TEXT NOT NULL DEFAULT '{}',
	workload_rating REAL,
	general_rating  REAL,
	all_reviews     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (semester, course_id)
);
`

// SQLiteSource 读取离线预处理产出的 SQLite 目录（courses 表）。
// prerequisites / avg_grades 为 JSON 文本列。
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite 打开数据库并确保表结构存在。path 可以是 ":memory:"。
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// :memory: 每个连接是独立的库
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) LoadSemester(ctx context.Context, semester string) ([]*core.Course, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT course_id, title, description, credits, moed_a, moed_b, faculty,
		       prerequisites, avg_grades, workload_rating, general_rating, all_reviews
		FROM courses WHERE semester = ? ORDER BY course_id`, semester)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "query courses", err)
	}
	defer rows.Close()

	log := logging.Ctx(ctx)
	var out []*core.Course
	for rows.Next() {
		var (
			id, title, desc, examA, examB, faculty, prereqs, grades, reviews string
			credits, workload, general                                        sql.NullFloat64
		)
		if err := rows.Scan(&id, &title, &desc, &credits, &examA, &examB, &faculty,
			&prereqs, &grades, &workload, &general, &reviews); err != nil {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "scan course", err)
		}
		meta := map[string]any{
			recall.MetaCourseID:      id,
			recall.MetaTitle:         title,
			recall.MetaDescription:   desc,
			recall.MetaExamA:         examA,
			recall.MetaExamB:         examB,
			recall.MetaFaculty:       faculty,
			recall.MetaPrerequisites: prereqs,
			recall.MetaAvgGrades:     grades,
			recall.MetaReviews:       reviews,
		}
		if credits.Valid {
			meta[recall.MetaCredits] = credits.Float64
		}
		if workload.Valid {
			meta[recall.MetaWorkload] = workload.Float64
		}
		if general.Valid {
			meta[recall.MetaGeneral] = general.Float64
		}

		c, err := recall.ParseCourse(id, meta)
		if err != nil {
			metrics.MalformedRecords.WithLabelValues(s.Name()).Inc()
			log.Warn().Err(err).Str("semester", semester).Str("course_id", id).Msg("skip malformed catalog row")
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "iterate courses", err)
	}
	if len(out) == 0 {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses WHERE semester = ?`, semester).Scan(&n); err == nil && n == 0 {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "semester "+semester)
		}
	}
	return out, nil
}

// Upsert 写入一个学期的课程（同课程号覆盖）。
func (s *SQLiteSource) Upsert(ctx context.Context, semester string, courses []*core.Course) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO courses
		(semester, course_id, title, description, credits, moed_a, moed_b, faculty,
		 prerequisites, avg_grades, workload_rating, general_rating, all_reviews)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range courses {
		prereqs := c.Prerequisites
		if prereqs == nil {
			prereqs = core.Prerequisites{}
		}
		prereqJSON, err := json.Marshal(prereqs)
		if err != nil {
			return err
		}
		grades := c.HistoricalGrades
		if grades == nil {
			grades = map[string]float64{}
		}
		gradesJSON, err := json.Marshal(grades)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, semester, c.ID, c.Title, c.Description, c.Credits,
			c.ExamDateA, c.ExamDateB, c.Faculty, string(prereqJSON), string(gradesJSON),
			nullable(c.WorkloadRating), nullable(c.GeneralRating), c.ReviewsSummaryRaw); err != nil {
			return fmt.Errorf("upsert course %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
