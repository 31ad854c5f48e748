package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"auto_blog_writer/credentials"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Manage provider API keys",
	Long: `Credentials stores one API key per generation step (title, body, image).
Saved keys take precedence over files in the secrets directory.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <title|body|image> [value]",
	Short: "Save a key; reads it from stdin when value is omitted, clears it when empty",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := credentials.ParseKind(args[0])
		if err != nil {
			return err
		}
		value := ""
		if len(args) == 2 {
			value = args[1]
		} else {
			sc := bufio.NewScanner(cmd.InOrStdin())
			if sc.Scan() {
				value = sc.Text()
			}
			if err := sc.Err(); err != nil {
				return err
			}
		}

		store, closeCreds, err := openCredentials()
		if err != nil {
			return err
		}
		defer closeCreds()
		if err := store.Set(cmd.Context(), kind, strings.TrimSpace(value)); err != nil {
			return err
		}
		if strings.TrimSpace(value) == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s key cleared\n", kind)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s key saved\n", kind)
		}
		return nil
	},
}

var credentialsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which keys are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeCreds, err := openCredentials()
		if err != nil {
			return err
		}
		defer closeCreds()
		status, err := credentials.Status(cmd.Context(), store)
		if err != nil {
			return err
		}
		missing := 0
		for _, k := range credentials.Kinds {
			state := "set"
			if !status[k] {
				state = "missing"
				missing++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", k, state)
		}
		if missing > 0 {
			return errors.New("some credentials are missing")
		}
		return nil
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsStatusCmd)
	rootCmd.AddCommand(credentialsCmd)
}
