package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"medhub/pkg/a2a"
	"medhub/pkg/agents"
	"medhub/pkg/catalog"
	"medhub/pkg/provider"
	"medhub/pkg/router"
	"medhub/pkg/service"
	"medhub/pkg/stores"
)

var (
	agentNameFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the hub or a specialist agent",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	hubCmd = &cobra.Command{
		Use:   "hub",
		Short: "Serve the routing hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := catalog.FromConfig()

			if err != nil {
				return err
			}

			store, err := newStore()

			if err != nil {
				return err
			}

			classifier := router.NewClassifier(
				provider.NewBreakerProvider("router", provider.NewOpenAIProviderFromConfig("router_model")),
				registry,
			)

			client := router.NewTaskClient(
				router.WithTimeout(viper.GetDuration("router.invoke_timeout")),
			)

			direct := router.NewRouterExecutor(classifier, client)
			dispatcher := router.NewDispatcher(direct, router.NewReactExecutor(direct))

			return service.NewHubServer(
				dispatcher, store, viper.GetString("hub.addr"),
			).Start()
		},
	}

	agentCmd = &cobra.Command{
		Use:   "agent",
		Short: "Serve a specialist agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			executor, err := newExecutor(agentNameFlag)

			if err != nil {
				return err
			}

			store, err := newStore()

			if err != nil {
				return err
			}

			card := a2a.NewAgentCardFromConfig(agentNameFlag)

			return service.NewAgentServer(
				*card,
				executor,
				store,
				viper.GetString(fmt.Sprintf("agents.%s.addr", agentNameFlag)),
			).Start()
		},
	}
)

func newStore() (stores.TaskStore, error) {
	if viper.GetString("store.driver") == "sqlite" {
		return stores.NewSQLiteTaskStore(viper.GetString("store.path"))
	}

	return stores.NewInMemoryTaskStore(), nil
}

func newExecutor(name string) (router.Executor, error) {
	prvdr := provider.NewBreakerProvider(
		name,
		provider.NewOpenAIProviderFromConfig(name+"_model"),
	)

	switch name {
	case "medgemma":
		return agents.NewMedGemmaExecutor(prvdr), nil
	case "clinical":
		return agents.NewClinicalExecutor(prvdr), nil
	default:
		return nil, fmt.Errorf("unknown agent %q", name)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.AddCommand(hubCmd)
	serveCmd.AddCommand(agentCmd)

	agentCmd.Flags().StringVarP(&agentNameFlag, "name", "n", "medgemma", "Name of the agent to serve")
}

var longServe = `
Serve the routing hub or one of its specialist agents.

Examples:
  # Serve the hub on the configured address
  medhub serve hub

  # Serve the medgemma specialist agent
  medhub serve agent -n medgemma

  # Serve the clinical research agent
  medhub serve agent -n clinical
`
