package wire

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"cargo-booking/internal/adaptor"
	"cargo-booking/internal/data/repository"
	"cargo-booking/internal/realtime"
	"cargo-booking/internal/usecase"
	"cargo-booking/internal/worker"
	"cargo-booking/pkg/broker"
	"cargo-booking/pkg/middleware"
	"cargo-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the router plus whatever runs beside it.
type App struct {
	Router   *chi.Mux
	Registry *realtime.Registry

	runners map[string]func(ctx context.Context) error
	closers []func() error
	log     *zap.Logger
}

// Wiring builds every dependency. Redis and Kafka are only wired when
// configured; without Redis, broadcasts stay inside this process.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	app := &App{
		Registry: realtime.NewRegistry(),
		runners:  make(map[string]func(ctx context.Context) error),
		log:      logger,
	}

	dispatcher := realtime.NewDispatcher(app.Registry, logger)
	var notifier usecase.StatusNotifier = dispatcher

	if config.Redis.Addr != "" {
		client := realtime.NewRedisClient(config.Redis)
		relay := realtime.NewRedisRelay(client, config.Redis.Channel, dispatcher, logger)
		notifier = relay
		app.runners["redis relay"] = relay.Run
		app.closers = append(app.closers, client.Close)
		logger.Info("Redis relay enabled", zap.String("addr", config.Redis.Addr))
	}

	var publisher usecase.EventPublisher
	if len(config.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(config.Kafka.Brokers, config.Kafka.Topic, logger)
		publisher = producer
		app.closers = append(app.closers, producer.Close)
		logger.Info("Kafka publisher enabled", zap.Strings("brokers", config.Kafka.Brokers))
	}

	if repo.Session != nil {
		cleanup := worker.NewSessionCleanupWorker(repo.Session, config.Session.CleanupInterval, logger)
		app.runners["session cleanup"] = cleanup.Start
	}

	service := usecase.NewService(repo, config, notifier, publisher, logger)
	handler := adaptor.NewHandler(service, config, logger)
	tracking := realtime.NewServer(app.Registry, service.Auth, config.Realtime, config.Session.CookieName, logger)

	app.Router = setupRouter(handler, service, tracking, app.Registry, config, logger)
	return app
}

// Run starts the background runners and blocks until ctx is done and
// every runner has returned.
func (a *App) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for name, run := range a.runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("Background runner stopped", zap.String("runner", name), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	tracking *realtime.Server,
	registry *realtime.Registry,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	wireAuth(r, handler.Auth, service.Auth, config, logger)
	wireBooking(r, handler.Booking, service.Auth, config, logger)
	wireRealtime(r, tracking, config)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", map[string]int{"connections": registry.Len()})
	})

	return r
}
