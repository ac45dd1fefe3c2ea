package service

import (
	"context"
	"sync"
	"time"

	"comms-service/internal/cpostgres"
	"comms-service/internal/model"
	"comms-service/internal/provider"

	"github.com/robfig/cron/v3"
	"github.com/useinsider/go-pkg/inslogger"
)

const reminderSweepBatch = 50

type ReminderScheduler interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// reminderScheduler sweeps due payment reminders on a cron spec and pushes
// them through the dispatch façade. A reminder that fails to send stays
// pending and is picked up again on the next sweep.
type reminderScheduler struct {
	reminders    cpostgres.ReminderService
	sender       Sender
	logger       inslogger.Interface
	cronEngine   *cron.Cron
	cronSpec     string
	isRunning    bool
	runningMutex sync.Mutex
}

func NewReminderScheduler(reminders cpostgres.ReminderService, sender Sender, logger inslogger.Interface, cronSpec string) ReminderScheduler {
	return &reminderScheduler{
		reminders:  reminders,
		sender:     sender,
		logger:     logger,
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		cronSpec:   cronSpec,
	}
}

func (s *reminderScheduler) Start() error {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()

	if s.isRunning {
		return nil
	}

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.dispatchDue(ctx)
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.isRunning = true
	s.logger.Logf("reminder scheduler started (spec=%q)", s.cronSpec)
	return nil
}

func (s *reminderScheduler) Stop() error {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cronEngine.Stop().Done()
	s.isRunning = false
	s.logger.Log("reminder scheduler stopped")
	return nil
}

func (s *reminderScheduler) IsRunning() bool {
	s.runningMutex.Lock()
	defer s.runningMutex.Unlock()
	return s.isRunning
}

func (s *reminderScheduler) dispatchDue(ctx context.Context) {
	due, err := s.reminders.Due(ctx, time.Now(), reminderSweepBatch)
	if err != nil {
		s.logger.Errorf("failed to load due reminders: %v", err)
		return
	}

	for _, rem := range due {
		payload := provider.Payload{
			Text: model.RenderTemplate(rem.Message, model.TemplateData{
				CustomerName:      rem.CustomerName,
				AccountNumber:     rem.AccountNumber,
				OutstandingAmount: rem.Amount,
			}),
		}
		if rem.Channel == model.ChannelEmail {
			payload.Subject = "Payment Reminder"
		}

		if _, err := s.sender.SendAndRecord(ctx, rem.Channel, rem.ContactInfo, payload, rem.AccountNumber); err != nil {
			s.logger.Errorf("failed to send reminder %d: %v", rem.ID, err)
			continue
		}

		if err := s.reminders.MarkSent(ctx, rem.ID); err != nil {
			s.logger.Errorf("failed to mark reminder %d sent: %v", rem.ID, err)
		}
	}
}
