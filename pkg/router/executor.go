package router

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"medhub/pkg/a2a"
)

/*
Executor is one strategy for driving a task to a terminal state.  Execute
owns the task until it returns; Cancel may run concurrently with Execute
and races it through the store's terminal guard.
*/
type Executor interface {
	Execute(ctx context.Context, request *Request, updater *Updater) error
	Cancel(ctx context.Context, request *Request, updater *Updater) error
}

/*
RouterExecutor is the direct strategy: classify once, invoke the chosen
agent, relay its stream.  Failures after the task exists are recorded as a
failed transition rather than returned.
*/
type RouterExecutor struct {
	classifier *Classifier
	client     *TaskClient
}

func NewRouterExecutor(classifier *Classifier, client *TaskClient) *RouterExecutor {
	return &RouterExecutor{
		classifier: classifier,
		client:     client,
	}
}

func (executor *RouterExecutor) Execute(
	ctx context.Context, request *Request, updater *Updater,
) error {
	if err := updater.Transition(
		ctx,
		a2a.TaskStateWorking,
		"Analyzing query and routing to appropriate agent...",
	); err != nil {
		return err
	}

	decision := executor.classifier.Classify(ctx, request.Query)

	events, err := executor.client.Invoke(ctx, decision.Agent, request.Query)

	if err != nil {
		log.Error("remote invocation failed",
			"task", request.Task.ID,
			"agent", decision.Agent.Name,
			"error", err,
		)
		return updater.Fail(ctx, err.Error())
	}

	return updater.Relay(ctx, decision, events)
}

func (executor *RouterExecutor) Cancel(
	ctx context.Context, request *Request, updater *Updater,
) error {
	return updater.Cancel(ctx, "Task canceled by user request")
}

/*
ReactExecutor is the multi-step strategy behind orchestrator_mode "react".
Planning currently collapses into a single routed step; the extra working
transition keeps the caller-visible lifecycle stable once real multi-step
planning lands.
*/
type ReactExecutor struct {
	direct *RouterExecutor
}

func NewReactExecutor(direct *RouterExecutor) *ReactExecutor {
	return &ReactExecutor{direct: direct}
}

func (executor *ReactExecutor) Execute(
	ctx context.Context, request *Request, updater *Updater,
) error {
	if err := updater.Transition(
		ctx,
		a2a.TaskStateWorking,
		"Planning multi-step route...",
	); err != nil {
		return err
	}

	return executor.direct.Execute(ctx, request, updater)
}

func (executor *ReactExecutor) Cancel(
	ctx context.Context, request *Request, updater *Updater,
) error {
	return updater.Cancel(ctx, "Task canceled by user request")
}

/*
Dispatcher selects an execution strategy per request and remembers which
strategy each in-flight task is running under, so cancellation reaches the
strategy actually driving the task instead of assuming the direct one.
*/
type Dispatcher struct {
	direct Executor
	react  Executor

	mu       sync.Mutex
	inflight map[string]Executor
}

func NewDispatcher(direct, react Executor) *Dispatcher {
	return &Dispatcher{
		direct:   direct,
		react:    react,
		inflight: make(map[string]Executor),
	}
}

func (dispatcher *Dispatcher) strategyFor(mode string) Executor {
	if mode == ModeReact {
		return dispatcher.react
	}

	return dispatcher.direct
}

func (dispatcher *Dispatcher) Execute(
	ctx context.Context, request *Request, updater *Updater,
) error {
	strategy := dispatcher.strategyFor(request.Mode())

	log.Info("dispatching task",
		"task", request.Task.ID,
		"mode", request.Mode(),
	)

	dispatcher.mu.Lock()
	dispatcher.inflight[request.Task.ID] = strategy
	dispatcher.mu.Unlock()

	defer func() {
		dispatcher.mu.Lock()
		delete(dispatcher.inflight, request.Task.ID)
		dispatcher.mu.Unlock()
	}()

	return strategy.Execute(ctx, request, updater)
}

func (dispatcher *Dispatcher) Cancel(
	ctx context.Context, request *Request, updater *Updater,
) error {
	dispatcher.mu.Lock()
	strategy, ok := dispatcher.inflight[request.Task.ID]
	dispatcher.mu.Unlock()

	if !ok {
		strategy = dispatcher.direct
	}

	return strategy.Cancel(ctx, request, updater)
}
