package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/bk-portal-api/internal/console"
	"github.com/noah-isme/bk-portal-api/internal/models"
)

var errDeclined = errors.New("dibatalkan")

func newAccountsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List, inspect and manage portal accounts",
	}
	cmd.AddCommand(newAccountsListCmd(s))
	cmd.AddCommand(newAccountsShowCmd(s))
	cmd.AddCommand(newAccountsSetRoleCmd(s))
	cmd.AddCommand(newAccountsDeleteCmd(s))
	return cmd
}

type listFlags struct {
	page   int
	role   string
	search string
	sort   string
}

func (f *listFlags) bind(cmd *cobra.Command, withRole bool) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number, starting at 1")
	cmd.Flags().StringVar(&f.search, "search", "", "search text")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort as <column>_<asc|desc>")
	if withRole {
		cmd.Flags().StringVar(&f.role, "role", models.RoleFilterAll, "role tab: all, siswa, guru or admin")
	}
}

func (f *listFlags) state(spec console.ViewSpec) (console.QueryState, error) {
	if f.page < 1 {
		return console.QueryState{}, withCode(exitUsage, fmt.Errorf("--page must be at least 1"))
	}
	role := strings.ToLower(strings.TrimSpace(f.role))
	if role != "" && !spec.HasRoleTab(role) {
		return console.QueryState{}, withCode(exitUsage, fmt.Errorf("unknown role %q", f.role))
	}
	key, dir := spec.ParseSort(f.sort)
	return console.QueryState{Page: f.page - 1, Role: role, Search: f.search, SortKey: key, SortDir: dir}, nil
}

func newAccountsListCmd(s *session) *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, _ := console.Spec(console.ViewAccounts)
			state, err := flags.state(spec)
			if err != nil {
				return err
			}
			table := newTermTable(s.out, spec)
			list := console.NewAccountList(s.client, s.renderer, table, s.notifier, s.logger)
			list.Apply(cmd.Context(), state)
			if table.failed {
				return withCode(exitAPI, errors.New(spec.LoadError))
			}
			return nil
		},
	}
	flags.bind(cmd, true)
	return cmd
}

// openModal loads the account into a fresh modal.
func openModal(cmd *cobra.Command, s *session, id string) (*console.AccountModal, error) {
	spec, _ := console.Spec(console.ViewAccounts)
	list := console.NewAccountList(s.client, s.renderer, newTermTable(s.out, spec), s.notifier, s.logger)
	kpis := console.NewKPIBoard(s.client, &kpiLine{}, s.logger)
	modal := console.NewAccountModal(s.client, list, kpis, s.notifier, s.logger)
	if !modal.Open(cmd.Context(), id) {
		return nil, withCode(exitAPI, errors.New(console.MsgDetailLoadFailed))
	}
	return modal, nil
}

func newAccountsShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modal, err := openModal(cmd, s, args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			for _, field := range s.renderer.AccountDetail(*modal.Current()) {
				fmt.Fprintf(w, "%s\t%s\n", field[0], field[1])
			}
			return w.Flush()
		},
	}
}

func newAccountsSetRoleCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <id> <siswa|guru|admin>",
		Short: "Change the role of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.UserRole(strings.ToLower(strings.TrimSpace(args[1])))
			if !role.Valid() {
				return withCode(exitUsage, fmt.Errorf("unknown role %q", args[1]))
			}
			modal, err := openModal(cmd, s, args[0])
			if err != nil {
				return err
			}
			if modal.SubmitRole(cmd.Context(), role, s.confirmer()) {
				return nil
			}
			if s.notifier.failed() {
				return withCode(exitAPI, errors.New("role update failed"))
			}
			return withCode(exitDeclined, errDeclined)
		},
	}
}

func newAccountsDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account through the privileged delete function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modal, err := openModal(cmd, s, args[0])
			if err != nil {
				return err
			}
			if modal.Delete(cmd.Context(), s.confirmer()) {
				return nil
			}
			if s.notifier.failed() {
				return withCode(exitAPI, errors.New("delete failed"))
			}
			return withCode(exitDeclined, errDeclined)
		},
	}
}

func newKPIsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Show account counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line := &kpiLine{}
			failed := console.NewKPIBoard(s.client, line, s.logger).Refresh(cmd.Context())
			line.write(s.out)
			if len(failed) == len(console.KPIMetrics) {
				return withCode(exitAPI, errors.New("all counters failed"))
			}
			return nil
		},
	}
}
