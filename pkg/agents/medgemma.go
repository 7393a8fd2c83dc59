/*
Package agents holds the specialist executors the hub routes to.  Each one
runs behind its own agent server and answers with a single provider call;
none of them supports cancellation, which they signal with the dedicated
unsupported-operation error rather than a generic failure.
*/
package agents

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"medhub/pkg/a2a"
	"medhub/pkg/provider"
	"medhub/pkg/router"
)

const medgemmaSystemPrompt = `You are a careful medical assistant. Answer the user's health question
clearly and concisely. If the question requires diagnosis or treatment
decisions, say so explicitly.`

const disclaimer = "\n\nThis information is educational only. Please consult a healthcare professional for medical advice."

/*
MedGemmaExecutor answers general medical questions.  Answers that do not
already tell the user to consult a professional get a disclaimer appended.
*/
type MedGemmaExecutor struct {
	provider provider.Interface
}

func NewMedGemmaExecutor(prvdr provider.Interface) *MedGemmaExecutor {
	return &MedGemmaExecutor{provider: prvdr}
}

func (executor *MedGemmaExecutor) Execute(
	ctx context.Context, request *router.Request, updater *router.Updater,
) error {
	if err := updater.Transition(
		ctx,
		a2a.TaskStateWorking,
		"Consulting medical knowledge...",
	); err != nil {
		return err
	}

	answer, err := executor.provider.Complete(ctx, []provider.Message{
		provider.SystemMessage(medgemmaSystemPrompt),
		provider.UserMessage(request.Query),
	})

	if err != nil {
		log.Error("medgemma completion failed", "task", request.Task.ID, "error", err)
		return updater.Fail(ctx, "The medical assistant is unavailable: "+err.Error())
	}

	if !strings.Contains(strings.ToLower(answer), "consult") {
		answer += disclaimer
	}

	if err := updater.AddArtifact(ctx, a2a.NewTextArtifact("medgemma_response", answer)); err != nil {
		return err
	}

	return updater.Transition(ctx, a2a.TaskStateCompleted, "Consultation complete")
}

func (executor *MedGemmaExecutor) Cancel(
	ctx context.Context, request *router.Request, updater *router.Updater,
) error {
	return a2a.ErrUnsupportedOperation.WithMessagef(
		"agent medgemma does not support cancellation",
	)
}

var _ router.Executor = (*MedGemmaExecutor)(nil)
