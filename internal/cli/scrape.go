package cli

import (
	"fmt"

	"pai-assistant-go/internal/service"
	"pai-assistant-go/pkg/crawler"
	"pai-assistant-go/pkg/openai"
	"pai-assistant-go/pkg/tika"
	"pai-assistant-go/pkg/urlutil"

	"github.com/spf13/cobra"
)

func init() {
	scrape := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Fetch a page and ingest it into the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE:  runScrape,
	}
	scrape.Flags().Bool("dry-run", false, "Fetch and print the text without ingesting")

	check := &cobra.Command{
		Use:   "check-url <url>",
		Short: "Report whether a URL would be accepted for ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !urlutil.Validate(args[0]) {
				return fmt.Errorf("%w: %q", service.ErrInvalidURL, args[0])
			}
			name, _ := urlutil.Filename(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	RootCmd.AddCommand(scrape, check)
}

func runScrape(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var extractor crawler.TextExtractor
	if t := tika.NewClient(cfg.Tika); t != nil {
		extractor = t
	}
	fetcher := crawler.New(cfg.Crawler, extractor)

	if dryRun {
		if !urlutil.Validate(args[0]) {
			return fmt.Errorf("%w: %q", service.ErrInvalidURL, args[0])
		}
		res, err := fetcher.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printJSON(cmd, res)
		return nil
	}

	client := openai.NewClient(cfg.OpenAI)
	facade := service.NewFacade(
		service.NewAssistantService(client, nil, cfg.Assistant),
		service.NewKnowledgeService(client, nil, cfg.Knowledge),
		fetcher,
	)
	res, err := facade.IngestURL(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printJSON(cmd, res)
	return nil
}
