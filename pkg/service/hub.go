package service

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/spf13/viper"

	"medhub/pkg/a2a"
	"medhub/pkg/router"
	"medhub/pkg/stores"
)

const maxPromptLength = 4000

type ChatRequest struct {
	Prompt           string `json:"prompt"`
	ConversationID   string `json:"conversation_id,omitempty"`
	OrchestratorMode string `json:"orchestrator_mode,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
	TaskID   string `json:"task_id"`
	State    string `json:"state"`
}

/*
HubServer is the caller-facing API: a chat endpoint that runs a query
through the dispatcher and answers with the routed task's final artifact.
*/
type HubServer struct {
	app         *fiber.App
	dispatcher  *router.Dispatcher
	store       stores.TaskStore
	addr        string
	chatTimeout time.Duration
}

func NewHubServer(dispatcher *router.Dispatcher, store stores.TaskStore, addr string) *HubServer {
	chatTimeout := viper.GetDuration("router.chat_timeout")

	if chatTimeout == 0 {
		chatTimeout = 90 * time.Second
	}

	srv := &HubServer{
		app: fiber.New(fiber.Config{
			AppName:      "medhub",
			ServerHeader: "MedHub",
		}),
		dispatcher:  dispatcher,
		store:       store,
		addr:        addr,
		chatTimeout: chatTimeout,
	}

	srv.app.Use(logger.New())
	srv.app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	srv.app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	srv.app.Get(healthcheck.StartupEndpoint, healthcheck.New())
	srv.app.Get("/healthz", srv.handleHealth)
	srv.app.Post("/chat", srv.handleChat)
	srv.app.Post("/tasks/:id/cancel", srv.handleCancel)

	return srv
}

func (srv *HubServer) Start() error {
	log.Info("hub listening", "addr", srv.addr)
	return srv.app.Listen(srv.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *HubServer) Shutdown() error {
	return srv.app.Shutdown()
}

// App exposes the fiber app for in-process testing.
func (srv *HubServer) App() *fiber.App {
	return srv.app
}

func (srv *HubServer) handleHealth(ctx fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

func (srv *HubServer) handleChat(ctx fiber.Ctx) error {
	var body ChatRequest

	if err := ctx.Bind().Body(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	if len(body.Prompt) == 0 || len(body.Prompt) > maxPromptLength {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "prompt must be between 1 and 4000 characters",
		})
	}

	task := a2a.NewTask(body.ConversationID)
	task.AddMessage(*a2a.NewTextMessage("user", body.Prompt))

	if body.OrchestratorMode != "" {
		task.Metadata = map[string]any{"orchestrator_mode": body.OrchestratorMode}
	}

	runCtx, cancel := context.WithTimeout(ctx.Context(), srv.chatTimeout)
	defer cancel()

	if err := srv.store.Create(runCtx, task); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updater := router.NewUpdater(srv.store, task)

	if err := srv.dispatcher.Execute(
		runCtx, router.NewRequest(task, body.Prompt), updater,
	); err != nil {
		log.Error("chat execution failed", "task", task.ID, "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   err.Error(),
			"task_id": task.ID,
		})
	}

	// Read the final state back from the store: a concurrent cancel may
	// have finished the task before the relay did.
	final, err := srv.store.Get(runCtx, task.ID)

	if err != nil {
		final = updater.Task()
	}

	response := final.LastArtifactText()

	if final.Status.State == a2a.TaskStateFailed {
		response = final.Status.Message.Text()
	}

	return ctx.JSON(ChatResponse{
		Response: response,
		TaskID:   final.ID,
		State:    string(final.Status.State),
	})
}

func (srv *HubServer) handleCancel(ctx fiber.Ctx) error {
	id := ctx.Params("id")

	task, err := srv.store.Get(ctx.Context(), id)

	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updater := router.NewUpdater(srv.store, task)

	if err := srv.dispatcher.Cancel(
		ctx.Context(), router.NewRequest(task, ""), updater,
	); err != nil {
		var terminal *a2a.TerminalStateError

		if errors.As(err, &terminal) {
			return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{
		"task_id": id,
		"state":   string(updater.Task().Status.State),
	})
}
