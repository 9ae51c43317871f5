package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the local reader accounts",
}

var accountRegisterCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		account, err := ctrl.Store.Register(args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Welcome %s\n", account.Username)
		return nil
	},
}

var accountLoginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to an existing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		account, err := ctrl.Store.Login(args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Logged in as %s\n", account.Username)
		return nil
	},
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ctrl.Store.Logout(); err != nil {
			return err
		}
		fmt.Println("👋 Logged out")
		return nil
	},
}

var accountWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		account, ok := ctrl.Store.CurrentAccount()
		if !ok {
			fmt.Println("Not logged in.")
			return nil
		}
		printAccount(account)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{accountRegisterCmd, accountLoginCmd} {
		c.Flags().StringP("password", "p", "", "Password (read from stdin when empty)")
	}
	accountCmd.AddCommand(accountRegisterCmd, accountLoginCmd, accountLogoutCmd, accountWhoamiCmd)
	rootCmd.AddCommand(accountCmd)
}

func readPassword(cmd *cobra.Command) (string, error) {
	if password, _ := cmd.Flags().GetString("password"); password != "" {
		return password, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("password is required")
	}
	return password, nil
}

func printAccount(account data.Account) {
	fmt.Printf("👤 %s (id: %s)\n", account.Username, account.ID)
	if account.CreatedAt > 0 {
		fmt.Printf("   member since %s\n", time.UnixMilli(account.CreatedAt).Format(time.DateOnly))
	}
}
