package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Run one question through the pipeline and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question cannot be blank")
		}

		p, err := buildPipeline(cfg, nil, logger)
		if err != nil {
			return err
		}
		resp, outcome := p.chat.Chat(cmd.Context(), &entities.ChatRequest{Question: question})
		printAnswer(cmd.OutOrStdout(), resp, outcome)
		return nil
	},
}

func printAnswer(w io.Writer, resp *entities.ChatResponse, outcome entities.Outcome) {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	if outcome != entities.OutcomeAnswered {
		fmt.Fprintf(w, "%s %s\n", yellow("outcome:"), outcome)
	}
	fmt.Fprintf(w, "%s %s\n", boldGreen("Answer:"), resp.Answer)
	if len(resp.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, boldCyan("Sources:"))
	for _, s := range resp.Sources {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}
