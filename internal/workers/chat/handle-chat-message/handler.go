package handlechatmessage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"quickbite/internal/chat"
	"quickbite/internal/common/camunda"
	apperrors "quickbite/internal/common/errors"
	"quickbite/internal/common/logger"
	"quickbite/internal/common/metrics"
	"quickbite/internal/models"
)

const (
	TaskType = "handle-chat-message"
)

// Assistant answers one chat message.
type Assistant interface {
	HandleMessage(ctx context.Context, msg chat.ChatMessage, out chat.Outbound)
}

type Handler struct {
	config     *Config
	assistant  Assistant
	classifier *chat.Classifier
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, assistant Assistant, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:     config,
		assistant:  assistant,
		classifier: chat.NewClassifier(),
		errors:     apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.failJob(client, job, apperrors.NewInputParseFailureError(fmt.Sprintf("parse input: %v", err)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		return h.failJob(client, job, err)
	}

	return h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate(input); err != nil {
		return nil, err
	}

	msg := chat.ChatMessage{
		Role:           models.ParseRole(input.Role),
		UserIdentifier: strings.TrimSpace(input.UserIdentifier),
		SessionID:      strings.TrimSpace(input.SessionID),
		Text:           input.Text,
	}

	transcript := chat.NewTranscript()
	h.assistant.HandleMessage(ctx, msg, transcript)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewWorkflowEngineError("handle chat message", err, true)
	}

	view := transcript.Snapshot()
	return &Output{
		Replies:      view.Replies,
		Suggestions:  view.Suggestions,
		Confirmation: view.Confirmation,
		Intent:       h.classifier.Classify(msg.Text).String(),
	}, nil
}

func (h *Handler) validate(input *Input) error {
	if strings.TrimSpace(input.UserIdentifier) == "" {
		return apperrors.NewInvalidRequestError("userIdentifier is required")
	}
	if strings.TrimSpace(input.Text) == "" {
		return apperrors.NewInvalidRequestError("text is required")
	}
	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	if _, err := camunda.Send(context.Background(), h.config.Backoff, "complete "+TaskType, cmd.Send); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) error {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
	return err
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
