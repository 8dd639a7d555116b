// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/assessment/engine"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/database"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/progress"
	"assessment-workers/internal/repository"
	"assessment-workers/internal/search"

	comparebenchmark "assessment-workers/internal/workers/assessment/compare-benchmark"
	notifyassessmentcompleted "assessment-workers/internal/workers/assessment/notify-assessment-completed"
	recordassessmentresult "assessment-workers/internal/workers/assessment/record-assessment-result"
	saveassessmentprogress "assessment-workers/internal/workers/assessment/save-assessment-progress"
	scoreassessment "assessment-workers/internal/workers/assessment/score-assessment"
	validateassessmentresponses "assessment-workers/internal/workers/assessment/validate-assessment-responses"
)

// The suite talks to real services. Start them with docker compose and run
// with E2E_TESTS=1.
const enableEnv = "E2E_TESTS"

type services struct {
	cfg      *config.Config
	pg       *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient
	zeebe    *camunda.Client
	repo     *repository.Repository
	progress *progress.Store
	indexer  *search.ResultIndexer
	engine   *engine.Engine
	log      logger.Logger
}

func TestMain(m *testing.M) {
	if os.Getenv(enableEnv) == "" {
		fmt.Printf("skipping e2e tests: set %s=1 to run against local services\n", enableEnv)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestFullAssessmentFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc := connectServices(t, ctx)
	sector := "retail"
	answers := allAnswers(t, sector, 4)

	// 1. Create the assessment row so progress has a stable id
	assessment, err := svc.repo.Create(ctx, "lead-"+uuid.NewString()[:8], sector)
	require.NoError(t, err)
	t.Logf("✅ assessment %s created", assessment.ID)

	// 2. Partial save, then the full answer set
	sap := saveassessmentprogress.NewHandler(saveassessmentprogress.LoadConfig(), svc.engine, svc.progress, svc.repo, svc.log)
	partial := map[string]interface{}{"dm_1": 4, "dm_2": 4}
	saved, err := sap.Execute(ctx, &saveassessmentprogress.Input{AssessmentID: assessment.ID, Sector: sector, Responses: partial})
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Progress.Answered)
	assert.True(t, saved.Persisted)

	saved, err = sap.Execute(ctx, &saveassessmentprogress.Input{AssessmentID: assessment.ID, Sector: sector, Responses: answers})
	require.NoError(t, err)
	assert.Equal(t, saved.Progress.Total, saved.Progress.Answered)
	t.Log("✅ progress saved")

	// 3. Validate
	vr := validateassessmentresponses.NewHandler(validateassessmentresponses.LoadConfig(), svc.engine, svc.log)
	validated, err := vr.Execute(ctx, &validateassessmentresponses.Input{Sector: sector, Responses: answers})
	require.NoError(t, err)
	assert.True(t, validated.Valid)

	// 4. Score from the progress store
	sa := scoreassessment.NewHandler(scoreassessment.LoadConfig(), svc.engine, svc.progress, svc.log)
	scored, err := sa.Execute(ctx, &scoreassessment.Input{AssessmentID: assessment.ID})
	require.NoError(t, err)
	assert.Equal(t, 75, scored.OverallScore)
	assert.Equal(t, "Transforming", scored.MaturityLevel)
	assert.Equal(t, scoreassessment.SourceProgress, scored.ResponseSource)
	t.Logf("✅ scored %d/100", scored.OverallScore)

	// 5. Compare
	cb := comparebenchmark.NewHandler(comparebenchmark.LoadConfig(), svc.engine, svc.log)
	score := float64(scored.OverallScore)
	compared, err := cb.Execute(ctx, &comparebenchmark.Input{Sector: sector, Score: &score})
	require.NoError(t, err)
	assert.True(t, compared.Available)

	// 6. Record
	rar := recordassessmentresult.NewHandler(recordassessmentresult.LoadConfig(), svc.repo, svc.indexer, svc.progress, svc.log)
	result := scored.AssessmentResult
	recorded, err := rar.Execute(ctx, &recordassessmentresult.Input{AssessmentID: assessment.ID, AssessmentResult: &result})
	require.NoError(t, err)
	assert.Equal(t, 1, recorded.ResultVersion)
	assert.True(t, recorded.Indexed)

	stored, err := svc.repo.LatestResult(ctx, assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, stored.OverallScore)

	_, err = svc.progress.Load(ctx, assessment.ID)
	assert.ErrorIs(t, err, progress.ErrNotFound, "progress is cleared after recording")
	t.Logf("✅ result v%d recorded", recorded.ResultVersion)

	// 7. Rescoring appends a new version
	recorded, err = rar.Execute(ctx, &recordassessmentresult.Input{AssessmentID: assessment.ID, AssessmentResult: &result})
	require.NoError(t, err)
	assert.Equal(t, 2, recorded.ResultVersion)

	// 8. Notify without channels configured
	nac := notifyassessmentcompleted.NewHandler(notifyassessmentcompleted.LoadConfig(), nil, nil, svc.log)
	final := recorded.AssessmentResult
	notified, err := nac.Execute(ctx, &notifyassessmentcompleted.Input{AssessmentID: assessment.ID, AssessmentResult: &final})
	require.NoError(t, err)
	assert.False(t, notified.Published)
	assert.False(t, notified.EmailSent)

	t.Log("✅ full assessment flow passed")
}

func TestSectorWithoutBenchmark(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := connectServices(t, ctx)
	sa := scoreassessment.NewHandler(scoreassessment.LoadConfig(), svc.engine, svc.progress, svc.log)

	scored, err := sa.Execute(ctx, &scoreassessment.Input{Sector: "energy", Responses: allAnswers(t, "energy", 3)})
	require.NoError(t, err)
	assert.Equal(t, 50, scored.OverallScore)
	assert.True(t, scored.BenchmarkUnavailable)
	assert.Nil(t, scored.Percentile)
}

// ==========================
// Helpers
// ==========================

func connectServices(t *testing.T, ctx context.Context) *services {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL connection failed")
	require.NoError(t, pg.Ping(ctx), "❌ PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "❌ Redis ping failed")
	t.Cleanup(func() { rdb.Close() })

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "❌ Elasticsearch client creation failed")
	require.NoError(t, es.Ping(ctx), "❌ Elasticsearch ping failed")

	zeebe, err := camunda.NewClient(cfg.Camunda)
	require.NoError(t, err, "❌ Zeebe client creation failed")
	require.NoError(t, zeebe.HealthCheck(ctx), "❌ Zeebe topology request failed")
	t.Cleanup(func() { zeebe.Close() })

	repo := repository.New(pg.GetDB())
	require.NoError(t, repo.Migrate(ctx))

	cat, err := catalog.Default()
	require.NoError(t, err)
	table, err := benchmark.Default()
	require.NoError(t, err)
	eng, err := engine.New(engine.Config{Catalog: cat, Benchmarks: table, DefaultSector: engine.DefaultSector}, log)
	require.NoError(t, err)

	index := cfg.Assessment.ResultsIndex
	if index == "" {
		index = search.DefaultIndex
	}

	return &services{
		cfg:      cfg,
		pg:       pg,
		redis:    rdb,
		es:       es,
		zeebe:    zeebe,
		repo:     repo,
		progress: progress.NewStore(rdb.GetClient(), time.Hour),
		indexer:  search.NewResultIndexer(es.GetClient(), index),
		engine:   eng,
		log:      log,
	}
}

func allAnswers(t *testing.T, sector string, value int) map[string]interface{} {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	questions, err := cat.QuestionsFor(sector)
	require.NoError(t, err)

	out := make(map[string]interface{}, len(questions))
	for _, q := range questions {
		out[q.ID] = value
	}
	return out
}
