package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

const (
	heartbeatInterval = 30 * time.Second
	pingTimeout       = 5 * time.Second
)

type consumer interface {
	Run(ctx context.Context) error
}

type dependency struct {
	name string
	ping func(context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	InstanceID   string
	Consumer     consumer
	Dependencies []dependency
}

// Service starts the notification consumer once every dependency answers
// and returns when the consumer stops or ctx is canceled.
type Service struct {
	logg       *logger.Logger
	instanceID string
	consumer   consumer
	deps       []dependency
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.Consumer == nil:
		return nil, errors.New("notification consumer is required")
	}
	return &Service{
		logg:       params.Logger,
		instanceID: params.InstanceID,
		consumer:   params.Consumer,
		deps:       params.Dependencies,
	}, nil
}

// checkDependencies pings all dependencies and reports every failure.
func (s *Service) checkDependencies(ctx context.Context) error {
	var errs error
	for _, dep := range s.deps {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := dep.ping(pingCtx)
		cancel()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s ping failed: %w", dep.name, err))
		}
	}
	return errs
}

func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "instance", s.instanceID)
	if err := s.checkDependencies(ctx); err != nil {
		s.logg.Error(ctx, "worker dependencies not ready", err)
		return err
	}
	s.logg.Info(ctx, "worker dependencies ready")

	done := make(chan error, 1)
	go func() { done <- s.consumer.Run(ctx) }()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	started := time.Now()
	for {
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "consumer stopped unexpectedly", err)
			}
			return err
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case <-heartbeat.C:
			s.logg.Debug(s.logg.WithField(ctx, "uptime_s", int64(time.Since(started).Seconds())), "worker heartbeat")
		}
	}
}
