package process

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// Service is one long-running unit of work owned by a Process. Start blocks
// until the service finishes or fails. Close requests shutdown and must be
// safe to call more than once, it is invoked while Start may still be running.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Close() error
}

// Process supervises registered services: Run starts them all concurrently,
// and the first fatal failure cancels and closes the rest. The returned error
// is that first failure, nil when every service finished or was cancelled
// cleanly.
type Process struct {
	services []Service
	logger   hclog.Logger
}

func New(logger hclog.Logger) *Process {
	return &Process{
		logger: logger,
	}
}

func (p *Process) Register(service Service) {
	p.services = append(p.services, service)
}

func (p *Process) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, service := range p.services {
		service := service

		group.Go(func() error {
			p.logger.Info("Starting service", "name", service.Name())

			if err := service.Start(groupCtx); err != nil {
				p.logger.Error("Service failed", "name", service.Name(), "err", err)

				return fmt.Errorf("service %s: %w", service.Name(), err)
			}

			p.logger.Info("Service finished", "name", service.Name())

			return nil
		})
	}

	// close all services once the group context is done, either because a
	// service failed, the caller cancelled or every service finished.
	// Blocking Starts return after their Close.
	closerDoneCh := make(chan struct{})

	go func() {
		defer close(closerDoneCh)

		<-groupCtx.Done()

		for _, service := range p.services {
			if err := service.Close(); err != nil {
				p.logger.Warn("Error while closing service", "name", service.Name(), "err", err)
			}
		}
	}()

	err := group.Wait()

	<-closerDoneCh

	return err
}
