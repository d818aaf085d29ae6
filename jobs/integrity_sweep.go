package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/academe-hq/academe/internal/jobs"
)

// integrityChecks pairs each referencing entity with the query counting its
// dangling rows.
var integrityChecks = []struct {
	entity string
	query  string
}{
	{"student_school", `SELECT COUNT(*) FROM students st LEFT JOIN schools s ON s.id = st.school_id WHERE s.id IS NULL`},
	{"student_classroom", `SELECT COUNT(*) FROM students st LEFT JOIN classrooms c ON c.id = st.classroom_id WHERE st.classroom_id IS NOT NULL AND c.id IS NULL`},
	{"classroom_school", `SELECT COUNT(*) FROM classrooms c LEFT JOIN schools s ON s.id = c.school_id WHERE s.id IS NULL`},
	{"resource_school", `SELECT COUNT(*) FROM resources r LEFT JOIN schools s ON s.id = r.school_id WHERE s.id IS NULL`},
	{"resource_classroom", `SELECT COUNT(*) FROM resources r LEFT JOIN classrooms c ON c.id = r.classroom_id WHERE r.classroom_id IS NOT NULL AND c.id IS NULL`},
	{"membership_role", `SELECT COUNT(*) FROM school_memberships m LEFT JOIN roles ro ON ro.id = m.role_id WHERE ro.id IS NULL`},
	{"membership_school", `SELECT COUNT(*) FROM school_memberships m LEFT JOIN schools s ON s.id = m.school_id WHERE m.school_id IS NOT NULL AND s.id IS NULL`},
}

// RunIntegritySweep counts dangling references across every relation and
// reports them. A non-zero count means a cascade failed somewhere.
func RunIntegritySweep(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) error {
	tracker := metrics.Track("integrity_sweep")
	totalOrphans := 0
	var err error
	for _, check := range integrityChecks {
		var count int
		if err = pool.QueryRow(ctx, check.query).Scan(&count); err != nil {
			break
		}
		if count > 0 {
			metrics.AddOrphans(check.entity, count)
			logger.Error("dangling references found",
				slog.String("entity", check.entity), slog.Int("count", count))
			totalOrphans += count
		}
	}
	if err == nil {
		logger.Info("integrity sweep finished", slog.Int("orphans", totalOrphans))
	}
	return tracker.End(err)
}

// NewIntegritySweepHandler binds the sweep to its dependencies as an Asynq
// handler.
func NewIntegritySweepHandler(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return RunIntegritySweep(ctx, pool, logger, metrics)
	}
}
