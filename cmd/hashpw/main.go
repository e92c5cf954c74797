// Command hashpw prints the Argon2id hash to put in ADMIN_PASSWORD_HASH.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/openmobiletts/internal/auth"
)

const minPasswordLength = 8

func newRootCmd() *cobra.Command {
	var password string

	rootCmd := &cobra.Command{
		Use:   "hashpw",
		Short: "Generate the admin password hash for the TTS server",
		Long: `hashpw reads a password (from --password or the first line of stdin)
and prints an Argon2id hash together with the env line to add to .env:

  echo 'my secret' | hashpw`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, hash)
			fmt.Fprintf(out, "\nAdd to .env:\nADMIN_PASSWORD_HASH='%s'\n", hash)
			return nil
		},
	}
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "password to hash (visible in shell history; prefer stdin)")

	rootCmd.AddCommand(newVerifyCmd())
	return rootCmd
}

func newVerifyCmd() *cobra.Command {
	var password string

	verifyCmd := &cobra.Command{
		Use:           "verify HASH",
		Short:         "Check a password against an existing hash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			ok, err := auth.VerifyPassword(pw, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("password does not match")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password matches")
			return nil
		},
	}
	verifyCmd.Flags().StringVarP(&password, "password", "p", "", "password to check")
	return verifyCmd
}

func resolvePassword(flag string, stdin io.Reader) (string, error) {
	pw := flag
	if pw == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}
	if len(pw) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return pw, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hashpw: %v\n", err)
		os.Exit(1)
	}
}
