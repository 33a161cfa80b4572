/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trendystore/authserver/internal/auth"
	"github.com/trendystore/authserver/internal/db"
	"github.com/trendystore/authserver/internal/services"
	"github.com/trendystore/authserver/internal/store"
	"github.com/trendystore/authserver/types"
)

var bootstrapFlags struct {
	username string
	email    string
	phone    string
}

// bootstrapCmd represents the bootstrap-admin command
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Creates a user holding the admin role",
	Long: `Creates a user holding the admin role. The password is read from the
terminal, or from the first line of stdin when it is not a terminal. Usage:

	authserver bootstrap-admin --username root --email root@example.com
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		if strings.TrimSpace(bootstrapFlags.username) == "" {
			return errors.New("--username is required")
		}

		password, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		users := services.NewUserService(
			store.NewUserRepository(dbConn),
			store.NewRoleRepository(dbConn),
			auth.NewBcryptHasher(cfg.Auth.BcryptCost),
			services.WithLogger(log),
		)

		in := types.UserInput{
			Username: bootstrapFlags.username,
			Email:    bootstrapFlags.email,
			Phone:    bootstrapFlags.phone,
			Password: password,
			Roles:    []string{"admin"},
		}
		if err := users.CheckConflicts(ctx, in, 0); err != nil {
			return errors.New(services.MessageOf(err))
		}
		user, err := users.Register(ctx, in)
		if err != nil {
			return fmt.Errorf("%s: %w", services.MessageOf(err), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "admin %q created with id %d\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
	bootstrapCmd.Flags().StringVar(&bootstrapFlags.username, "username", "", "admin username")
	bootstrapCmd.Flags().StringVar(&bootstrapFlags.email, "email", "", "admin email")
	bootstrapCmd.Flags().StringVar(&bootstrapFlags.phone, "phone", "", "admin phone (+375...)")
}

// promptPassword reads the password twice without echo on a terminal, or
// once from in otherwise.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Enter password: ")
		first, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Repeat password: ")
		second, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return checkPassword(string(first))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return checkPassword(strings.TrimRight(line, "\r\n"))
}

func checkPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
