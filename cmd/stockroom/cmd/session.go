package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const passwordEnv = "STOCKROOM_PASSWORD"

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in with an email and password. The password is read from --password or,
when the flag is absent, from the ` + passwordEnv + ` environment variable.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session token and signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (or set "+passwordEnv+")")
	_ = loginCmd.MarkFlagRequired("email")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if !cmd.Flags().Changed("password") {
		password = os.Getenv(passwordEnv)
	}
	if password == "" {
		return errors.New("password required: pass --password or set " + passwordEnv)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Login(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", user.Email, user.Role)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Logout(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "logged out")
	return nil
}
