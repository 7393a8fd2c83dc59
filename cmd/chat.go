package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"medhub/pkg/service"
)

var (
	hubURLFlag       string
	conversationFlag string
	modeFlag         string

	chatCmd = &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send a query to a running hub",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			body, err := json.Marshal(service.ChatRequest{
				Prompt:           prompt,
				ConversationID:   conversationFlag,
				OrchestratorMode: modeFlag,
			})

			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 120 * time.Second}

			resp, err := client.Post(
				strings.TrimRight(hubURLFlag, "/")+"/chat",
				"application/json",
				bytes.NewReader(body),
			)

			if err != nil {
				return err
			}

			defer resp.Body.Close()

			var answer service.ChatResponse

			if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
				return err
			}

			renderAnswer(answer)

			return nil
		},
	}
)

func renderAnswer(answer service.ChatResponse) {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	stateStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212"))

	fmt.Println(labelStyle.Render("Task: ") + valueStyle.Render(answer.TaskID))
	fmt.Println(labelStyle.Render("State: ") + stateStyle.Render(answer.State))
	fmt.Println()
	fmt.Println(valueStyle.Render(answer.Response))
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&hubURLFlag, "hub", "http://localhost:9100", "Base URL of the hub")
	chatCmd.Flags().StringVar(&conversationFlag, "conversation", "", "Conversation id to continue")
	chatCmd.Flags().StringVar(&modeFlag, "mode", "", "Orchestrator mode (simple or react)")
}
