// Command watcher follows the tracking channel from a terminal. It logs
// in, optionally requests one status change, then prints every event
// until interrupted or until reconnect attempts run out.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargo-booking/internal/data/entity"
	"cargo-booking/internal/realtime"
	"cargo-booking/pkg/wsclient"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		serverURL   string
		wsPath      string
		username    string
		password    string
		token       string
		bookingID   int64
		status      string
		base        time.Duration
		maxDelay    time.Duration
		maxAttempts int
		debug       bool
	)

	flagSet := pflag.NewFlagSet("watcher", pflag.ContinueOnError)
	flagSet.StringVar(&serverURL, "server", "http://localhost:8080", "booking API base URL")
	flagSet.StringVar(&wsPath, "ws-path", "/ws", "tracking socket path")
	flagSet.StringVarP(&username, "username", "u", "", "account to log in with")
	flagSet.StringVarP(&password, "password", "p", "", "password for --username")
	flagSet.StringVar(&token, "token", "", "existing session token (skips login)")
	flagSet.Int64Var(&bookingID, "booking", 0, "booking to move before watching (with --status)")
	flagSet.StringVar(&status, "status", "", "target status for --booking")
	flagSet.DurationVar(&base, "backoff-base", time.Second, "first reconnect delay")
	flagSet.DurationVar(&maxDelay, "backoff-cap", 30*time.Second, "longest reconnect delay")
	flagSet.IntVar(&maxAttempts, "max-attempts", 5, "reconnect attempts before giving up")
	flagSet.BoolVar(&debug, "debug", false, "verbose logging")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := wsclient.NewAPI(serverURL, nil)
	switch {
	case token != "":
		api.SetToken(token)
	case username != "":
		auth, err := api.Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		logger.Info("Logged in", zap.String("user", auth.Username), zap.String("role", string(auth.Role)))
	default:
		return fmt.Errorf("either --token or --username is required")
	}

	if bookingID > 0 && status != "" {
		if err := requestTransition(ctx, api, bookingID, entity.BookingStatus(status), logger); err != nil {
			return err
		}
	}

	dialer, err := api.TrackingDialer(wsPath)
	if err != nil {
		return err
	}

	session := wsclient.NewSession(dialer,
		wsclient.WithBackoff(wsclient.Backoff{Base: base, Cap: maxDelay, MaxAttempts: maxAttempts}),
		wsclient.WithLogger(logger),
		wsclient.OnState(func(s wsclient.State, cause error) {
			fields := []zap.Field{zap.Stringer("state", s)}
			if cause != nil {
				fields = append(fields, zap.Error(cause))
			}
			if wsclient.IsUnauthenticated(cause) {
				logger.Warn("Server rejected the session token", fields...)
				return
			}
			logger.Info("Channel state", fields...)
		}),
		wsclient.OnEvent(func(ev realtime.Event) { printEvent(logger, ev) }),
	)

	if err := session.Start(ctx); err != nil {
		return err
	}

	finished := make(chan struct{})
	go func() {
		session.Wait()
		close(finished)
	}()

	return awaitExit(ctx, finished, session.Close, maxAttempts)
}

// awaitExit blocks until the user interrupts or the session gives up.
func awaitExit(ctx context.Context, finished <-chan struct{}, closeSession func() error, maxAttempts int) error {
	select {
	case <-ctx.Done():
		return closeSession()
	case <-finished:
		// an interrupt cancels the loop too; that is not a lost channel
		if ctx.Err() != nil {
			return closeSession()
		}
		return fmt.Errorf("tracking channel lost after %d attempts", maxAttempts)
	}
}

func requestTransition(ctx context.Context, api *wsclient.API, id int64, to entity.BookingStatus, logger *zap.Logger) error {
	bookings, err := api.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	for _, b := range bookings {
		if b.ID != id {
			continue
		}
		updated, err := api.UpdateStatus(ctx, b, to)
		if err != nil {
			return fmt.Errorf("booking %d: %w", id, err)
		}
		logger.Info("Status updated", zap.Int64("booking_id", id), zap.String("status", string(updated.Status)))
		return nil
	}
	return fmt.Errorf("booking %d: %w", id, entity.ErrBookingNotFound)
}

func printEvent(logger *zap.Logger, ev realtime.Event) {
	switch ev.Type {
	case realtime.EventBookingStatusUpdated:
		if ev.Booking != nil {
			logger.Info("Booking status changed",
				zap.Int64("booking_id", ev.Booking.ID),
				zap.String("status", string(ev.Booking.Status)),
				zap.String("owner", ev.Booking.UserID),
			)
		}
	case realtime.EventLocationUpdate:
		if ev.Data != nil {
			logger.Debug("Location", zap.Float64("lat", ev.Data.Lat), zap.Float64("lng", ev.Data.Lng))
		}
	default:
		logger.Info("Event", zap.String("type", string(ev.Type)), zap.String("message", ev.Message))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
