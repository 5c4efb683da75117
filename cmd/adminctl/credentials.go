package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"arq/pkg/secrets"
)

func newHashPasswordCmd() *cobra.Command {
	var (
		username string
		cost     int
	)
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin for ADMIN_CREDENTIALS",
		Long: `Reads one password line from stdin and prints its bcrypt hash.
With --username the output is a ready "username:hash" entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
				return fmt.Errorf("--cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
			}
			if strings.ContainsAny(username, ":,") {
				return errors.New("--username must not contain ':' or ','")
			}

			password, err := readLine(cmd)
			if err != nil {
				return err
			}
			hash, err := secrets.HashWithCost(password, cost)
			if err != nil {
				return err
			}

			if username != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", username, hash)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "prefix the hash with this admin username")
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func newGenSecretCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random ADMIN_SESSION_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < secrets.MinSigningSecretBytes {
				return fmt.Errorf("--bytes must be at least %d", secrets.MinSigningSecretBytes)
			}
			secret, err := secrets.Generate(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", secrets.MinSigningSecretBytes, "random bytes before encoding")
	return cmd
}

// readLine returns the first line of stdin without its line ending.
func readLine(cmd *cobra.Command) (string, error) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("no password on stdin")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}
