package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"raterocket/internal/model"
	"raterocket/internal/repository"
)

// SessionMirrorWorker consumes conversation snapshots and applies them
// to the session ledger. Replacing the message set keeps the ledger in
// step with the cache-resident conversation.
type SessionMirrorWorker struct {
	conn      *amqp.Connection
	repo      *repository.SessionRepository
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSessionMirrorWorker(conn *amqp.Connection, repo *repository.SessionRepository, queueName string, log *zap.Logger) *SessionMirrorWorker {
	return &SessionMirrorWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		log:       log,
	}
}

func (w *SessionMirrorWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var snapshot model.ConversationSnapshot
				if err := json.Unmarshal(d.Body, &snapshot); err != nil {
					w.log.Error("decode snapshot failed", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.ReplaceMessages(snapshot.SessionID, snapshot.Messages, snapshot.Title); err != nil {
					w.log.Error("mirror conversation failed",
						zap.String("session_id", snapshot.SessionID),
						zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *SessionMirrorWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
