package queries_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/taskrepo"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type nopTracker struct{}

func (nopTracker) TrackAggregate(kernel.UUID, any) {}

// OpenBroadcastsQueryIntegrationTestSuite exercises the poll contract's
// SQL against a real PostgreSQL instance: the open-window filter and the
// queue ordering every polling client must agree on.
type OpenBroadcastsQueryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *taskrepo.GormTaskRepository
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&taskrepo.TaskDTO{}))
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE tasks").Error)
	suite.repository = taskrepo.NewGormTaskRepository(suite.db, nopTracker{})
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) point(lat, lng float64) kernel.GeoPoint {
	p, err := kernel.NewGeoPoint(lat, lng)
	suite.Require().NoError(err)
	return p
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) newStoredTask(priority int, createdAt time.Time) *task.Task {
	created, err := task.NewTask(
		kernel.NewUUID(),
		suite.point(24.86, 67.0),
		suite.point(24.90, 67.1),
		1500,
		priority,
		createdAt,
	)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), created))
	return created
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) openWindow(t *task.Task, now time.Time, window time.Duration) {
	_, err := suite.repository.OpenBroadcast(context.Background(), t.ID(), now.Add(window), now)
	suite.Require().NoError(err)
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) poll(now time.Time) []queries.GetOpenBroadcastsQueryResponse {
	handler := queries.NewGetOpenBroadcastsQueryHandler(suite.db, clockwork.NewFakeClockAt(now))
	query, err := queries.NewGetOpenBroadcastsQuery(0)
	suite.Require().NoError(err)

	broadcasts, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	return broadcasts
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) TestHandle_AcceptedTaskDisappears() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	open := suite.newStoredTask(0, now)
	suite.openWindow(open, now, time.Minute)

	before := suite.poll(now)
	suite.Require().Len(before, 1)
	suite.True(before[0].TaskID.IsEqual(open.ID()))

	_, err := suite.repository.Accept(ctx, open.ID(), kernel.NewUUID(), now)
	suite.Require().NoError(err)

	// Once a claim lands, no subsequent poll may list the task again.
	suite.Empty(suite.poll(now))
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) TestHandle_OverdueUnsweptTaskIsExcluded() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	overdue := suite.newStoredTask(0, now)
	suite.openWindow(overdue, now, time.Minute)

	// The window has lapsed but the sweep has not run: the row still says
	// broadcasting, yet the poll must already exclude it.
	suite.Empty(suite.poll(now.Add(2 * time.Minute)))

	fresh := suite.newStoredTask(0, now)
	suite.openWindow(fresh, now.Add(2*time.Minute), time.Hour)

	broadcasts := suite.poll(now.Add(2 * time.Minute))
	suite.Require().Len(broadcasts, 1)
	suite.True(broadcasts[0].TaskID.IsEqual(fresh.ID()))
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) TestHandle_OrderedByPriorityThenAge() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	routine := suite.newStoredTask(0, now.Add(-3*time.Hour))
	urgentNewer := suite.newStoredTask(2, now.Add(-time.Hour))
	urgentOlder := suite.newStoredTask(2, now.Add(-2*time.Hour))

	for _, stored := range []*task.Task{routine, urgentNewer, urgentOlder} {
		suite.openWindow(stored, now, time.Hour)
	}

	broadcasts := suite.poll(now)
	suite.Require().Len(broadcasts, 3)
	suite.True(broadcasts[0].TaskID.IsEqual(urgentOlder.ID()))
	suite.True(broadcasts[1].TaskID.IsEqual(urgentNewer.ID()))
	suite.True(broadcasts[2].TaskID.IsEqual(routine.ID()))
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) TestHandle_LimitTruncatesQueue() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	head := suite.newStoredTask(5, now.Add(-time.Hour))
	tail := suite.newStoredTask(0, now.Add(-time.Hour))
	suite.openWindow(head, now, time.Hour)
	suite.openWindow(tail, now, time.Hour)

	handler := queries.NewGetOpenBroadcastsQueryHandler(suite.db, clockwork.NewFakeClockAt(now))
	query, err := queries.NewGetOpenBroadcastsQuery(1)
	suite.Require().NoError(err)

	broadcasts, err := handler.Handle(context.Background(), query)
	suite.Require().NoError(err)
	suite.Require().Len(broadcasts, 1)
	suite.True(broadcasts[0].TaskID.IsEqual(head.ID()))
}

func (suite *OpenBroadcastsQueryIntegrationTestSuite) TestStatsHandle_BucketsPerOutcome() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	broadcasting := suite.newStoredTask(0, now)
	suite.openWindow(broadcasting, now, time.Hour)

	won := suite.newStoredTask(0, now)
	suite.openWindow(won, now, time.Hour)
	_, err := suite.repository.Accept(ctx, won.ID(), kernel.NewUUID(), now)
	suite.Require().NoError(err)

	lapsed := suite.newStoredTask(0, now)
	suite.openWindow(lapsed, now, time.Minute)
	suite.Require().NoError(suite.repository.ExpireBroadcast(ctx, lapsed.ID(), now.Add(2*time.Minute)))

	handler := queries.NewGetBroadcastStatsQueryHandler(suite.db)
	stats, err := handler.Handle(ctx, queries.NewGetBroadcastStatsQuery(now.Add(-time.Hour)))
	suite.Require().NoError(err)

	suite.Equal(1, stats.Broadcasting)
	suite.Equal(1, stats.Assigned)
	suite.Equal(1, stats.Expired)
	suite.Equal(0, stats.Idle)
}

func TestOpenBroadcastsQueryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OpenBroadcastsQueryIntegrationTestSuite))
}
