package courierrepo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	m.Called(id, aggregate)
}

type CourierRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *courierrepo.GormCourierRepository
	tracker    *MockAggregateTracker
}

func (suite *CourierRepositoryIntegrationTestSuite) SetupSuite() {
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

	suite.Require().NoError(db.AutoMigrate(&courierrepo.CourierDTO{}))
}

func (suite *CourierRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE couriers").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = courierrepo.NewGormCourierRepository(suite.db, suite.tracker)
}

func (suite *CourierRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *CourierRepositoryIntegrationTestSuite) point(lat, lng float64) kernel.GeoPoint {
	p, err := kernel.NewGeoPoint(lat, lng)
	suite.Require().NoError(err)
	return p
}

// storedCourier persists a courier, optionally online with a location.
func (suite *CourierRepositoryIntegrationTestSuite) storedCourier(
	name string, online bool, location *kernel.GeoPoint,
) *courier.Courier {
	c, err := courier.NewCourier(kernel.NewUUID(), name)
	suite.Require().NoError(err)

	if location != nil {
		suite.Require().NoError(c.ReportLocation(*location, time.Now().UTC()))
	}
	if online {
		c.GoOnline()
	}

	suite.Require().NoError(suite.repository.Add(context.Background(), c))
	return c
}

func (suite *CourierRepositoryIntegrationTestSuite) TestAddAndGet() {
	ctx := context.Background()
	location := suite.point(24.86, 67.0)
	stored := suite.storedCourier("rider-1", true, &location)

	loaded, err := suite.repository.Get(ctx, stored.ID())
	suite.Require().NoError(err)
	suite.Equal("rider-1", loaded.Name())
	suite.True(loaded.Online())
	suite.Require().NotNil(loaded.Location())
	suite.InDelta(24.86, loaded.Location().Lat(), 1e-9)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestGet_NotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestUpdate_GoingOfflinePersists() {
	ctx := context.Background()
	location := suite.point(24.86, 67.0)
	stored := suite.storedCourier("rider-1", true, &location)

	stored.GoOffline()
	suite.Require().NoError(suite.repository.Update(ctx, stored))

	loaded, err := suite.repository.Get(ctx, stored.ID())
	suite.Require().NoError(err)
	suite.False(loaded.Online())
}

func (suite *CourierRepositoryIntegrationTestSuite) TestFindNearby() {
	ctx := context.Background()
	pickup := suite.point(24.86, 67.0)

	near := suite.point(24.861, 67.001)     // ~150m away
	farther := suite.point(24.88, 67.02)    // ~3km away
	outOfRange := suite.point(25.2, 67.5)   // ~60km away
	offlineSpot := suite.point(24.86, 67.0) // at pickup but offline

	nearCourier := suite.storedCourier("near", true, &near)
	fartherCourier := suite.storedCourier("farther", true, &farther)
	suite.storedCourier("far", true, &outOfRange)
	suite.storedCourier("offline", false, &offlineSpot)
	suite.storedCourier("no-location", true, nil)

	found, err := suite.repository.FindNearby(ctx, pickup, 5.0, 0)
	suite.Require().NoError(err)
	suite.Require().Len(found, 2)

	suite.True(found[0].Courier.ID().IsEqual(nearCourier.ID()))
	suite.True(found[1].Courier.ID().IsEqual(fartherCourier.ID()))
	suite.Less(found[0].DistanceKm, found[1].DistanceKm)
	suite.Less(found[1].DistanceKm, 5.0)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestFindNearby_LimitTruncates() {
	ctx := context.Background()
	pickup := suite.point(24.86, 67.0)

	for i := 0; i < 5; i++ {
		location := suite.point(24.86+float64(i)*0.001, 67.0)
		suite.storedCourier("rider", true, &location)
	}

	found, err := suite.repository.FindNearby(ctx, pickup, 10.0, 3)
	suite.Require().NoError(err)
	suite.Len(found, 3)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestFindNearby_EmptyIsNotAnError() {
	found, err := suite.repository.FindNearby(context.Background(), suite.point(24.86, 67.0), 5.0, 0)
	suite.Require().NoError(err)
	suite.Empty(found)
}

func TestCourierRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CourierRepositoryIntegrationTestSuite))
}
