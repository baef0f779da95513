package handleimageupload

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
	TaskType = "handle-image-upload"
)

type Assistant interface {
	HandleImageUpload(ctx context.Context, role models.Role, userIdentifier, imageRef string, out chat.Outbound)
}

type Handler struct {
	config    *Config
	assistant Assistant
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, assistant Assistant, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		assistant: assistant,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
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

// execute leaves an empty imageRef to the assistant, which answers that it
// cannot look at images.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	user := strings.TrimSpace(input.UserIdentifier)
	if user == "" {
		return nil, apperrors.NewInvalidRequestError("userIdentifier is required")
	}

	transcript := chat.NewTranscript()
	h.assistant.HandleImageUpload(ctx, models.ParseRole(input.Role), user, strings.TrimSpace(input.ImageRef), transcript)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewWorkflowEngineError("handle image upload", err, true)
	}

	return outputFrom(transcript.Snapshot()), nil
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
