package cli

import (
	"pai-assistant-go/internal/service"
	"pai-assistant-go/pkg/openai"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant a question (not recorded)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	cmd.Flags().StringP("thread", "t", "", "Continue an existing conversation")

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	thread, _ := cmd.Flags().GetString("thread")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc := service.NewAssistantService(openai.NewClient(cfg.OpenAI), nil, cfg.Assistant)
	answer, err := svc.Answer(cmd.Context(), args[0], thread)
	if err != nil {
		return err
	}
	printJSON(cmd, answer)
	return nil
}
