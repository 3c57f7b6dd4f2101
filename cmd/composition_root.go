package cmd

import (
	"log/slog"

	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/redispub"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/services"

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	publisher  *redispub.Publisher
	planner    services.BroadcastPlanner
	clock      clockwork.Clock
	logger     *slog.Logger

	notifyRadiusKm float64
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, redisClient *redis.Client, logger *slog.Logger) CompositionRoot {
	return CompositionRoot{
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		publisher:  redispub.NewPublisher(redisClient, logger),
		planner: services.NewBroadcastPlanner(
			cfg.RadiusBoostKmPerPrio,
			cfg.WindowBoostPerPriority,
			cfg.MaxPriorityBoostSteps,
		),
		clock:          clockwork.NewRealClock(),
		logger:         logger,
		notifyRadiusKm: cfg.AcceptNotifyRadiusKm,
	}
}

func (c *CompositionRoot) CreateCreateTaskCommandHandler() commands.CreateTaskCommandHandler {
	var f commands.TaskUoWFactory = FuncTaskUoWFactory(func() commands.TaskUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateTaskCommandHandler(f, c.clock)
}

func (c *CompositionRoot) CreateOpenBroadcastCommandHandler() commands.OpenBroadcastCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewOpenBroadcastCommandHandler(f, c.publisher, c.planner, c.clock, c.logger)
}

func (c *CompositionRoot) CreateAcceptTaskCommandHandler() commands.AcceptTaskCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAcceptTaskCommandHandler(f, c.publisher, c.notifyRadiusKm, c.clock, c.logger)
}

func (c *CompositionRoot) CreateSweepExpiredCommandHandler() commands.SweepExpiredCommandHandler {
	var f commands.TaskUoWFactory = FuncTaskUoWFactory(func() commands.TaskUoW {
		return c.uowFactory.Create()
	})
	return commands.NewSweepExpiredCommandHandler(f, c.publisher, c.clock, c.logger)
}

func (c *CompositionRoot) CreateForceCloseBroadcastCommandHandler() commands.ForceCloseBroadcastCommandHandler {
	var f commands.TaskUoWFactory = FuncTaskUoWFactory(func() commands.TaskUoW {
		return c.uowFactory.Create()
	})
	return commands.NewForceCloseBroadcastCommandHandler(f, c.publisher, c.logger)
}

func (c *CompositionRoot) CreateCancelTaskCommandHandler() commands.CancelTaskCommandHandler {
	var f commands.TaskUoWFactory = FuncTaskUoWFactory(func() commands.TaskUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelTaskCommandHandler(f, c.publisher, c.logger)
}

func (c *CompositionRoot) CreateReportProgressCommandHandler() commands.ReportProgressCommandHandler {
	var f commands.TaskUoWFactory = FuncTaskUoWFactory(func() commands.TaskUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReportProgressCommandHandler(f)
}

func (c *CompositionRoot) CreateCreateCourierCommandHandler() commands.CreateCourierCommandHandler {
	var f commands.CourierUoWFactory = FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateCourierCommandHandler(f)
}

func (c *CompositionRoot) CreateReportLocationCommandHandler() commands.ReportLocationCommandHandler {
	var f commands.CourierUoWFactory = FuncCourierUoWFactory(func() commands.CourierUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReportLocationCommandHandler(f, c.clock)
}

func (c *CompositionRoot) CreateGetOpenBroadcastsQueryHandler() queries.GetOpenBroadcastsQueryHandler {
	return queries.NewGetOpenBroadcastsQueryHandler(c.gormDB, c.clock)
}

func (c *CompositionRoot) CreateGetBroadcastStatsQueryHandler() queries.GetBroadcastStatsQueryHandler {
	return queries.NewGetBroadcastStatsQueryHandler(c.gormDB)
}

type FuncTaskUoWFactory func() commands.TaskUoW

func (f FuncTaskUoWFactory) Create() commands.TaskUoW {
	return f()
}

type FuncCourierUoWFactory func() commands.CourierUoW

func (f FuncCourierUoWFactory) Create() commands.CourierUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
