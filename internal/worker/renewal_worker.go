package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// RenewalWorker periodically scans for contracts whose renewal date falls
// inside the configured notice window and publishes an expiring event for
// each, so downstream handlers can warn account owners before the term ends.
type RenewalWorker struct {
	contracts  repository.ContractRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ContractConfig
	stop       chan struct{}
}

// NewRenewalWorker creates the worker.
func NewRenewalWorker(contracts repository.ContractRepository, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.ContractConfig) *RenewalWorker {
	return &RenewalWorker{
		contracts:  contracts,
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		stop:       make(chan struct{}),
	}
}

// Start launches the scan loop. It runs one scan immediately and then on
// the configured interval until Stop is called.
func (w *RenewalWorker) Start(ctx context.Context) {
	interval := time.Duration(w.cfg.RenewalScanIntervalMins) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		w.scan(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				w.scan(ctx)
			}
		}
	}()
}

// Stop terminates the scan loop.
func (w *RenewalWorker) Stop() {
	close(w.stop)
}

func (w *RenewalWorker) scan(ctx context.Context) {
	now := time.Now()
	until := now.AddDate(0, 0, w.cfg.RenewalNoticeDays)

	contracts, err := w.contracts.ListRenewingBetween(ctx, now, until)
	if err != nil {
		w.logger.Error("renewal scan failed", zap.Error(err))
		return
	}
	for i := range contracts {
		contract := &contracts[i]
		if contract.RenewalDate == "" {
			continue
		}
		if w.dispatcher != nil {
			w.dispatcher.Publish(ctx, events.Event{
				ID:         uuid.NewString(),
				Type:       events.EventContractExpiring,
				ContractID: contract.ID,
				Timestamp:  now,
				Payload: events.ContractExpiringPayload{
					Number:      contract.Number,
					ClientID:    contract.ClientID,
					RenewalDate: contract.RenewalDate,
				},
			})
		}
	}
	if len(contracts) > 0 {
		w.logger.Info("renewal scan", zap.Int("expiring", len(contracts)), zap.Time("until", until))
	}
}
