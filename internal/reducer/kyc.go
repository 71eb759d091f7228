package reducer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

// kycResultValidity is how long a verification result stays valid, in
// seconds (one year).
const kycResultValidity = 31536000

func (r *Reducer) applyNewTaskCreated(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.NewTaskCreated) error {
	task := &schema.KycTask{
		ID:            p.TaskID,
		User:          p.User,
		RequiredLevel: p.RequiredLevel,
		Status:        schema.KycTaskStatusPending,
		CreatedAt:     ev.Timestamp,
	}
	if err := tx.CreateKycTask(ctx, task); err != nil {
		return err
	}

	return r.touchUser(ctx, tx, ev, p.User)
}

func (r *Reducer) applyTaskResponded(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.TaskResponded) error {
	task, err := tx.GetKycTask(ctx, p.TaskID)
	if err != nil {
		return err
	}
	if task == nil {
		logger.WarnCtx(ctx, "response for unknown kyc task skipped",
			zap.Uint32("taskID", p.TaskID), zap.String("tx", ev.TxHash))
		return nil
	}

	if task.Status != schema.KycTaskStatusPending {
		return fmt.Errorf("%w: kyc task %d responded in status %d",
			domain.ErrConsistency, p.TaskID, task.Status)
	}

	task.Status = schema.KycTaskStatusCompleted
	completedAt := ev.Timestamp
	task.CompletedAt = &completedAt
	operator := p.Operator
	task.RespondedBy = &operator
	if err := tx.SaveKycTask(ctx, task); err != nil {
		return err
	}

	if err := tx.SaveKycResult(ctx, &schema.KycResult{
		User:       task.User,
		Level:      p.AchievedLevel,
		VerifiedAt: ev.Timestamp,
		ExpiresAt:  ev.Timestamp + kycResultValidity,
		IsValid:    true,
	}); err != nil {
		return err
	}

	user, err := r.userFor(ctx, tx, ev, task.User)
	if err != nil {
		return err
	}
	user.KycLevel = p.AchievedLevel
	return tx.SaveUser(ctx, user)
}

func (r *Reducer) applyOperatorRegistered(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.OperatorRegistered) error {
	operator, err := tx.GetOperator(ctx, p.Operator)
	if err != nil {
		return err
	}
	if operator == nil {
		operator = &schema.Operator{Address: p.Operator}
	}

	operator.Registered = true
	operator.RegisteredAt = ev.Timestamp
	operator.DeregisteredAt = nil
	return tx.SaveOperator(ctx, operator)
}

func (r *Reducer) applyOperatorDeregistered(ctx context.Context, tx store.Store, ev *domain.Event, p *domain.OperatorDeregistered) error {
	operator, err := tx.GetOperator(ctx, p.Operator)
	if err != nil {
		return err
	}
	if operator == nil {
		return nil
	}

	operator.Registered = false
	deregisteredAt := ev.Timestamp
	operator.DeregisteredAt = &deregisteredAt
	return tx.SaveOperator(ctx, operator)
}
