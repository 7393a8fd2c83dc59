/*
Package service provides the HTTP surfaces: one A2A agent server per
specialist executor, and the hub's chat API that fronts the routing
pipeline.
*/
package service

import (
	"bufio"
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"medhub/pkg/a2a"
	"medhub/pkg/jsonrpc"
	"medhub/pkg/router"
	"medhub/pkg/stores"
)

/*
AgentServer exposes one executor over the A2A protocol: card discovery on
the well-known path and the task methods on /rpc.  sendSubscribe streams
newline-delimited JSON-RPC frames over the live response body.
*/
type AgentServer struct {
	app      *fiber.App
	card     a2a.AgentCard
	executor router.Executor
	store    stores.TaskStore
	addr     string
}

func NewAgentServer(
	card a2a.AgentCard, executor router.Executor, store stores.TaskStore, addr string,
) *AgentServer {
	srv := &AgentServer{
		app: fiber.New(fiber.Config{
			AppName:           card.Name,
			ServerHeader:      "A2A-Agent-Server",
			StreamRequestBody: true,
		}),
		card:     card,
		executor: executor,
		store:    store,
		addr:     addr,
	}

	srv.app.Use(logger.New())
	srv.app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	srv.app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	srv.app.Get(healthcheck.StartupEndpoint, healthcheck.New())
	srv.app.Get(a2a.WellKnownCardPath, srv.handleCard)
	srv.app.Post("/rpc", srv.handleRPC)

	return srv
}

func (srv *AgentServer) Start() error {
	log.Info("agent server listening", "agent", srv.card.Name, "addr", srv.addr)
	return srv.app.Listen(srv.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *AgentServer) Shutdown() error {
	return srv.app.Shutdown()
}

// App exposes the fiber app for in-process testing.
func (srv *AgentServer) App() *fiber.App {
	return srv.app
}

func (srv *AgentServer) handleCard(ctx fiber.Ctx) error {
	return ctx.JSON(srv.card)
}

func (srv *AgentServer) handleRPC(ctx fiber.Ctx) error {
	var request jsonrpc.Request

	if err := ctx.Bind().Body(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(jsonrpc.NewErrorResponse(
			nil,
			a2a.ErrInvalidRequest.WithMessagef("invalid request body: %v", err),
		))
	}

	switch request.Method {
	case "tasks/send":
		return srv.handleSend(ctx, request)
	case "tasks/sendSubscribe":
		return srv.handleSendSubscribe(ctx, request)
	case "tasks/get":
		return srv.handleGet(ctx, request)
	case "tasks/cancel":
		return srv.handleCancel(ctx, request)
	default:
		return ctx.JSON(jsonrpc.NewErrorResponse(
			request.ID,
			a2a.ErrMethodNotFound.WithMessagef("method not found: %s", request.Method),
		))
	}
}

// newTask materializes the task a send request operates on and persists it
// in submitted state before any execution starts.
func (srv *AgentServer) newTask(ctx context.Context, params a2a.TaskSendParams) (*a2a.Task, error) {
	task := a2a.NewTask(params.ContextID)

	if params.ID != "" {
		task.ID = params.ID
	}

	task.Metadata = params.Metadata
	task.AddMessage(params.Message)

	if err := srv.store.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (srv *AgentServer) handleSend(ctx fiber.Ctx, request jsonrpc.Request) error {
	var params a2a.TaskSendParams

	if err := json.Unmarshal(request.Params, &params); err != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(
			request.ID,
			a2a.ErrInvalidParams.WithMessagef("failed to unmarshal params: %v", err),
		))
	}

	task, err := srv.newTask(ctx.Context(), params)

	if err != nil {
		return srv.respondError(ctx, request.ID, err)
	}

	updater := router.NewUpdater(srv.store, task)

	if err := srv.executor.Execute(
		ctx.Context(), router.NewRequest(task, params.Message.Text()), updater,
	); err != nil {
		return srv.respondError(ctx, request.ID, err)
	}

	return ctx.JSON(jsonrpc.NewResponse(request.ID, updater.Task()))
}

func (srv *AgentServer) handleSendSubscribe(ctx fiber.Ctx, request jsonrpc.Request) error {
	var params a2a.TaskSendParams

	if err := json.Unmarshal(request.Params, &params); err != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(
			request.ID,
			a2a.ErrInvalidParams.WithMessagef("failed to unmarshal params: %v", err),
		))
	}

	task, err := srv.newTask(ctx.Context(), params)

	if err != nil {
		return srv.respondError(ctx, request.ID, err)
	}

	query := params.Message.Text()
	sink := make(chan a2a.StreamEvent, 8)

	// The executor runs detached from the request context: the stream
	// writer below drains the sink until the executor closes it.
	go func() {
		defer close(sink)

		updater := router.NewUpdater(srv.store, task, router.WithSink(sink))

		if err := srv.executor.Execute(
			context.Background(), router.NewRequest(task, query), updater,
		); err != nil {
			log.Error("streamed execution failed", "task", task.ID, "error", err)
		}
	}()

	ctx.Set("Content-Type", "application/json")

	ctx.RequestCtx().SetBodyStreamWriter(func(writer *bufio.Writer) {
		encoder := json.NewEncoder(writer)
		broken := false

		// Keep draining the sink after a write failure so the detached
		// executor never blocks on a dead subscriber.
		for event := range sink {
			if broken {
				continue
			}

			var payload any

			switch {
			case event.Status != nil:
				payload = event.Status
			case event.Artifact != nil:
				payload = event.Artifact
			default:
				continue
			}

			if err := encoder.Encode(jsonrpc.NewResponse(request.ID, payload)); err != nil {
				log.Warn("stream write failed", "task", task.ID, "error", err)
				broken = true
				continue
			}

			if err := writer.Flush(); err != nil {
				broken = true
			}
		}
	})

	return nil
}

func (srv *AgentServer) handleGet(ctx fiber.Ctx, request jsonrpc.Request) error {
	var params a2a.TaskQueryParams

	if err := json.Unmarshal(request.Params, &params); err != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(
			request.ID,
			a2a.ErrInvalidParams.WithMessagef("failed to unmarshal params: %v", err),
		))
	}

	task, err := srv.store.Get(ctx.Context(), params.ID)

	if err != nil {
		return srv.respondError(ctx, request.ID, err)
	}

	if params.HistoryLength != nil && *params.HistoryLength < len(task.History) {
		task.History = task.History[len(task.History)-*params.HistoryLength:]
	}

	return ctx.JSON(jsonrpc.NewResponse(request.ID, task))
}

func (srv *AgentServer) handleCancel(ctx fiber.Ctx, request jsonrpc.Request) error {
	var params a2a.TaskIDParams

	if err := json.Unmarshal(request.Params, &params); err != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(
			request.ID,
			a2a.ErrInvalidParams.WithMessagef("failed to unmarshal params: %v", err),
		))
	}

	task, err := srv.store.Get(ctx.Context(), params.ID)

	if err != nil {
		return srv.respondError(ctx, request.ID, err)
	}

	updater := router.NewUpdater(srv.store, task)

	if err := srv.executor.Cancel(
		ctx.Context(), router.NewRequest(task, ""), updater,
	); err != nil {
		return srv.respondError(ctx, request.ID, err)
	}

	return ctx.JSON(jsonrpc.NewResponse(request.ID, updater.Task()))
}

// respondError maps an error to a JSON-RPC error frame, preserving A2A
// error codes when the error carries one.
func (srv *AgentServer) respondError(ctx fiber.Ctx, id json.RawMessage, err error) error {
	if rpcErr, ok := err.(*a2a.RpcError); ok {
		return ctx.JSON(jsonrpc.NewErrorResponse(id, rpcErr))
	}

	return ctx.JSON(jsonrpc.NewErrorResponse(
		id,
		a2a.ErrInternal.WithMessagef("%v", err),
	))
}
