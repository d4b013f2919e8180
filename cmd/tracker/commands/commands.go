package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/server"
	"github.com/taskmaster/tracker/internal/ports"
)

// Version is set at build time
var Version = "dev"

// NewRootCommand creates the tracker command tree
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:          "tracker",
		Short:        "Flat-file task tracker",
		Long:         "Tracker keeps tasks, users and a status change log in plain comma separated files.",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "Config file (yaml, toml or json)")
	flags.StringVar(&opts.Email, "email", "", "Email of the current user")
	flags.StringVar(&opts.Password, "password", "", "Password of the current user")

	rootCmd.AddCommand(NewTasksCommand(opts))
	rootCmd.AddCommand(NewUserCommand(opts))
	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// NewTasksCommand creates the tasks command with subcommands
func NewTasksCommand(opts *Options) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
		Long:  "List, create and advance tasks as the user given by --email and --password",
	}

	tasksCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every task",
		RunE: withUser(opts, func(cmd *cobra.Command, a *app, user *entities.User) error {
			views, err := a.tasks.ListAll(cmd.Context(), user)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), views)
			return nil
		}),
	})

	var create ports.CreateTaskRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: withUser(opts, func(cmd *cobra.Command, a *app, user *entities.User) error {
			if err := a.tasks.Create(cmd.Context(), create, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d created\n", create.Code)
			return nil
		}),
	}
	createCmd.Flags().IntVar(&create.Code, "code", 0, "Task code (required)")
	createCmd.Flags().StringVar(&create.Name, "name", "", "Task name (required)")
	createCmd.Flags().IntVar(&create.RepUserCode, "user", 0, "Code of the responsible user (required)")
	markRequired(createCmd, "code", "name", "user")
	tasksCmd.AddCommand(createCmd)

	var change ports.ChangeStatusRequest
	var status int
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Advance a task to its next status",
		RunE: withUser(opts, func(cmd *cobra.Command, a *app, user *entities.User) error {
			change.Status = entities.TaskStatus(status)
			if err := a.tasks.ChangeStatus(cmd.Context(), change, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", change.Code, change.Status.Label())
			return nil
		}),
	}
	statusCmd.Flags().IntVar(&change.Code, "code", 0, "Task code (required)")
	statusCmd.Flags().IntVar(&status, "status", 0, "New status: 1 in progress, 2 done (required)")
	markRequired(statusCmd, "code", "status")
	tasksCmd.AddCommand(statusCmd)

	var historyCode int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show the status changes of a task",
		RunE: withUser(opts, func(cmd *cobra.Command, a *app, user *entities.User) error {
			entries, err := a.tasks.History(cmd.Context(), historyCode)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		}),
	}
	historyCmd.Flags().IntVar(&historyCode, "code", 0, "Task code (required)")
	markRequired(historyCmd, "code")
	tasksCmd.AddCommand(historyCmd)

	var deleteCode int
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a task (not supported)",
		RunE: withUser(opts, func(cmd *cobra.Command, a *app, user *entities.User) error {
			return a.tasks.Delete(cmd.Context(), deleteCode)
		}),
	}
	deleteCmd.Flags().IntVar(&deleteCode, "code", 0, "Task code (required)")
	markRequired(deleteCmd, "code")
	tasksCmd.AddCommand(deleteCmd)

	return tasksCmd
}

// NewUserCommand creates the user management command
func NewUserCommand(opts *Options) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Helpers for maintaining the user record file",
	}

	userCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users and their codes",
		RunE: withUser(opts, func(cmd *cobra.Command, a *app, user *entities.User) error {
			users, err := a.users.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tEMAIL")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", u.Code, u.Name, u.Email)
			}
			return tw.Flush()
		}),
	})

	userCmd.AddCommand(&cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash usable in the password column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	})

	return userCmd
}

// NewServeCommand creates the serve command
func NewServeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serve the task operations over HTTP with basic authentication",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			srv := server.New(a.cfg, a.auth, a.users, a.tasks, a.metrics, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(a.cfg.Server.GetAddr())
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print tracker version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tracker %s\n", Version)
		},
	}
}

// withUser wires the core and logs in before running fn
func withUser(opts *Options, fn func(cmd *cobra.Command, a *app, user *entities.User) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(opts)
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.login(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return fn(cmd, a, user)
	}
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name)
	}
}

func printTasks(w io.Writer, views []ports.TaskView) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tSTATUS\tRESPONSIBLE")
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.Code, v.Name, v.StatusLabel, responsible(v))
	}
	tw.Flush()
}

func responsible(v ports.TaskView) string {
	switch {
	case v.AssignedToYou:
		return "you"
	case v.AssigneeName != "":
		return "assigned to " + v.AssigneeName
	default:
		return fmt.Sprintf("assigned to unknown user %d", v.AssigneeCode)
	}
}

func printHistory(w io.Writer, entries []*entities.LogEntry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tUSER\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.ChangeDate.Format(entities.DateLayout), e.ChangeUserCode, e.Status.Label())
	}
	tw.Flush()
}
