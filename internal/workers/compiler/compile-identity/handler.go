package compileidentity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"identity-compiler/internal/common/errors"
	"identity-compiler/internal/common/logger"
	"identity-compiler/internal/common/metrics"
	"identity-compiler/internal/common/observability"
	"identity-compiler/internal/compiler"
)

const TaskType = "compile-identity"

type Handler struct {
	config       *Config
	service      *compiler.Service
	logger       logger.Logger
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, service *compiler.Service, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if obs == nil {
		obs = &observability.Observability{}
	}
	return &Handler{
		config:       config,
		service:      service,
		logger:       log,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return h.fail(ctx, client, job, start, errors.NewInternalError(fmt.Errorf("parse job variables: %w", err)))
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		return h.fail(ctx, client, job, start, err)
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send complete job command: %w", err)
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, "success")
	h.obs.RecordJobDuration(ctx, time.Since(start), "success")

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.Key,
		"cycleId": output.CycleID,
		"verdict": output.Verdict,
	})
	return nil
}

// Execute compiles the raw model output carried by the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	mode, err := compiler.ParseMode(input.Mode)
	if err != nil {
		return nil, err
	}

	result, err := h.service.Compile(ctx, compiler.Request{
		Mode: mode,
		Text: input.RawOutput,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Valid:    true,
		Verdict:  result.Verdict,
		ApplyNow: result.ApplyNow,
		Score:    result.Response.Outputs.ReadinessGate.SignalCredibilityScore,
		CycleID:  result.CycleID,
		Response: result.Response,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) error {
	bpmnErr := h.errorHandler.HandleJobError(ctx, client, job, err)

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "failed")
	return nil
}
