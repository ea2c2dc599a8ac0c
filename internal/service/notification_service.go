package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/jobs"
	"github.com/scsvmv/vms-api/pkg/mailer"
)

type approvalSender interface {
	SendApprovalNotice(ctx context.Context, n mailer.ApprovalNotice) error
}

// NotificationService dispatches approval notices. The approval path is
// fire-and-forget through the queue; the explicit resend path is synchronous
// and surfaces the send error.
type NotificationService struct {
	sender  approvalSender
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService builds the service and its dispatch queue.
func NewNotificationService(sender approvalSender, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{sender: sender, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("approval-notices", s.handleTask, cfg)
	return s
}

// Start begins queue consumption.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch enqueues an approval notice. Failures never reach the caller.
func (s *NotificationService) Dispatch(notice mailer.ApprovalNotice) {
	err := s.queue.Enqueue(jobs.Task{ID: uuid.NewString(), Payload: notice})
	if err != nil {
		s.logger.Warn("approval notice dropped",
			zap.String("to", notice.To),
			zap.String("uid", notice.UID),
			zap.Error(err))
	}
}

// Send delivers a notice synchronously. Used by the resend action, whose
// entire purpose is the send.
func (s *NotificationService) Send(ctx context.Context, notice mailer.ApprovalNotice) error {
	if err := s.sender.SendApprovalNotice(ctx, notice); err != nil {
		s.metrics.ObserveNotice(false)
		return errors.Wrap(err, errors.ErrNotification.Code, errors.ErrNotification.Status, "failed to send approval email")
	}
	s.metrics.ObserveNotice(true)
	return nil
}

func (s *NotificationService) handleTask(ctx context.Context, task jobs.Task) error {
	notice, ok := task.Payload.(mailer.ApprovalNotice)
	if !ok {
		s.logger.Error("unexpected task payload", zap.String("task_id", task.ID))
		return nil
	}
	if err := s.sender.SendApprovalNotice(ctx, notice); err != nil {
		s.logger.Warn("approval email failed",
			zap.String("to", notice.To),
			zap.String("uid", notice.UID),
			zap.Int("attempt", task.Attempt),
			zap.Error(err))
		s.metrics.ObserveNotice(false)
		return err
	}
	s.metrics.ObserveNotice(true)
	return nil
}
