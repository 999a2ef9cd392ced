package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/bk-portal-api/internal/console"
	"github.com/noah-isme/bk-portal-api/internal/models"
)

func newContentCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage articles, info items and materials",
	}
	cmd.AddCommand(newContentListCmd(s))
	cmd.AddCommand(newContentDeleteCmd(s))
	return cmd
}

func contentKind(name string) (console.ViewKind, console.ViewSpec, error) {
	kind, ok := console.ParseViewKind(name)
	if !ok || kind == console.ViewAccounts {
		return 0, console.ViewSpec{}, withCode(exitUsage, fmt.Errorf("unknown content kind %q (articles, info, materials)", name))
	}
	spec, _ := console.Spec(kind)
	return kind, spec, nil
}

// contentView wraps the typed list controllers behind one shape.
type contentView struct {
	apply func(ctx context.Context, q console.QueryState)
	title func(id string) (string, bool)
	del   func(ctx context.Context, id, title string, confirm console.Confirmer) bool
}

func newContentView(s *session, kind console.ViewKind, sink console.TableSink) contentView {
	switch kind {
	case console.ViewArticles:
		list := console.NewArticleList(s.client, s.renderer, sink, s.notifier, s.logger)
		return contentView{
			apply: list.Apply,
			title: func(id string) (string, bool) {
				a, ok := list.Lookup(id)
				return a.Title, ok
			},
			del: func(ctx context.Context, id, title string, confirm console.Confirmer) bool {
				return console.DeleteContent[models.Article](ctx, s.client, list, kind, id, title, confirm, s.notifier)
			},
		}
	case console.ViewInfo:
		list := console.NewInfoList(s.client, s.renderer, sink, s.notifier, s.logger)
		return contentView{
			apply: list.Apply,
			title: func(id string) (string, bool) {
				i, ok := list.Lookup(id)
				return i.Title, ok
			},
			del: func(ctx context.Context, id, title string, confirm console.Confirmer) bool {
				return console.DeleteContent[models.InfoItem](ctx, s.client, list, kind, id, title, confirm, s.notifier)
			},
		}
	default:
		list := console.NewMaterialList(s.client, s.renderer, sink, s.notifier, s.logger)
		return contentView{
			apply: list.Apply,
			title: func(id string) (string, bool) {
				m, ok := list.Lookup(id)
				return m.Title, ok
			},
			del: func(ctx context.Context, id, title string, confirm console.Confirmer) bool {
				return console.DeleteContent[models.Material](ctx, s.client, list, kind, id, title, confirm, s.notifier)
			},
		}
	}
}

func newContentListCmd(s *session) *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list <articles|info|materials>",
		Short: "List content rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, spec, err := contentKind(args[0])
			if err != nil {
				return err
			}
			state, err := flags.state(spec)
			if err != nil {
				return err
			}
			table := newTermTable(s.out, spec)
			newContentView(s, kind, table).apply(cmd.Context(), state)
			if table.failed {
				return withCode(exitAPI, errors.New(spec.LoadError))
			}
			return nil
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func newContentDeleteCmd(s *session) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "delete <articles|info|materials> <id>",
		Short: "Delete a content row and its stored files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, spec, err := contentKind(args[0])
			if err != nil {
				return err
			}
			if page < 1 {
				return withCode(exitUsage, fmt.Errorf("--page must be at least 1"))
			}
			view := newContentView(s, kind, newTermTable(s.out, spec))
			state := console.NewQueryState(spec).WithPage(page - 1)
			view.apply(cmd.Context(), state)

			id := args[1]
			title, ok := view.title(id)
			if !ok || title == "" {
				title = id
			}
			if view.del(cmd.Context(), id, title, s.confirmer()) {
				return nil
			}
			if s.notifier.failed() {
				return withCode(exitAPI, errors.New("delete failed"))
			}
			return withCode(exitDeclined, errDeclined)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page holding the row, used to show its title")
	return cmd
}
