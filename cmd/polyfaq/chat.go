package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/polyfaq/pkg/polyfaq/intent"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		dsn   string
		quiet bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Answer questions interactively until an exit phrase or EOF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := a.openEngine(ctx, dsn)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintln(out, "Ask about WhatsApp status in English, Hindi, Indonesian or Hinglish.")
				fmt.Fprintln(out, "Type \"exit\" or press Ctrl+D to leave.")
				fmt.Fprintln(out)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				if !quiet {
					fmt.Fprint(out, "> ")
				}
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				reply := e.Ask(ctx, line)
				fmt.Fprintln(out, reply.Text)
				if reply.Intent == intent.Exit {
					return nil
				}
			}
			if !quiet {
				fmt.Fprintln(out)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVarP(&dsn, "index", "i", "", "index location, as given to build --out (required)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print replies only, without banner or prompt")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}
