package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/ayxworxfr/scada_web/internal/dao"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the configuration database",
}

var dbSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Create or update tables and seed built-in roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		drop, _ := cmd.Flags().GetBool("drop")
		cfg, err := initConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		if err := dao.InitRepo(cfg.Database, cfg.Logger.Level); err != nil {
			return errors.Wrap(err, "failed to initialize database")
		}
		confirm := func() bool {
			return askYes("Drop all tables? This cannot be undone [y/N]: ")
		}
		if err := dao.SyncDB(ctx, dao.Engine(), drop, confirm); err != nil {
			return err
		}
		return dao.SeedRoles(ctx)
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a user, the password is read from the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roleID, _ := cmd.Flags().GetInt("role")
		descr, _ := cmd.Flags().GetString("descr")
		password, _ := cmd.Flags().GetString("password")

		cfg, err := initConfig()
		if err != nil {
			return err
		}
		if err := dao.InitRepo(cfg.Database, cfg.Logger.Level); err != nil {
			return errors.Wrap(err, "failed to initialize database")
		}

		if password == "" {
			if password, err = readPassword(); err != nil {
				return err
			}
		}

		user, err := dao.AddUser(context.Background(), args[0], password, roleID, descr)
		if err != nil {
			return err
		}
		fmt.Printf("user %s added, id %d, role %s\n", user.Name, user.ID, rights.Role(user.RoleID))
		return nil
	},
}

func init() {
	dbSyncCmd.Flags().Bool("drop", false, "drop existing tables first")
	dbCmd.AddCommand(dbSyncCmd)

	userAddCmd.Flags().Int("role", int(rights.Guest), "role id")
	userAddCmd.Flags().String("descr", "", "description")
	userAddCmd.Flags().String("password", "", "password, prompted when empty")
	userCmd.AddCommand(userAddCmd)
}

// readPassword 终端中不回显，两次输入需一致
func readPassword() (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.Wrap(err, "read password")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func askYes(prompt string) bool {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
