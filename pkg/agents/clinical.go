package agents

import (
	"context"

	"github.com/charmbracelet/log"

	"medhub/pkg/a2a"
	"medhub/pkg/provider"
	"medhub/pkg/router"
)

const clinicalSystemPrompt = `You are a clinical research assistant. Summarize the relevant clinical
evidence for the user's question: key findings, study quality, and open
questions. Cite trial or guideline names when you know them.`

/*
ClinicalExecutor summarizes clinical research evidence for a query.
*/
type ClinicalExecutor struct {
	provider provider.Interface
}

func NewClinicalExecutor(prvdr provider.Interface) *ClinicalExecutor {
	return &ClinicalExecutor{provider: prvdr}
}

func (executor *ClinicalExecutor) Execute(
	ctx context.Context, request *router.Request, updater *router.Updater,
) error {
	if err := updater.Transition(
		ctx,
		a2a.TaskStateWorking,
		"Reviewing clinical evidence...",
	); err != nil {
		return err
	}

	summary, err := executor.provider.Complete(ctx, []provider.Message{
		provider.SystemMessage(clinicalSystemPrompt),
		provider.UserMessage(request.Query),
	})

	if err != nil {
		log.Error("clinical summarization failed", "task", request.Task.ID, "error", err)
		return updater.Fail(ctx, "The clinical research assistant is unavailable: "+err.Error())
	}

	if err := updater.AddArtifact(ctx, a2a.NewTextArtifact("clinical_summary", summary)); err != nil {
		return err
	}

	return updater.Transition(ctx, a2a.TaskStateCompleted, "Evidence review complete")
}

func (executor *ClinicalExecutor) Cancel(
	ctx context.Context, request *router.Request, updater *router.Updater,
) error {
	return a2a.ErrUnsupportedOperation.WithMessagef(
		"agent clinical does not support cancellation",
	)
}

var _ router.Executor = (*ClinicalExecutor)(nil)
