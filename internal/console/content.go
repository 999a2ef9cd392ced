package console

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
)

// MsgContentDeleted is shown after a content row is removed.
const MsgContentDeleted = "Data berhasil dihapus."

// ContentBackend is the API surface of the content views.
type ContentBackend interface {
	ListArticles(ctx context.Context, query url.Values) ([]models.Article, int, error)
	ListInfo(ctx context.Context, query url.Values) ([]models.InfoItem, int, error)
	ListMaterials(ctx context.Context, query url.Values) ([]models.Material, bool, error)
	DeleteContent(ctx context.Context, kind ViewKind, id string) (*dto.DeleteContentResponse, error)
}

// NewArticleList builds the article list controller.
func NewArticleList(backend ContentBackend, renderer *Renderer, sink TableSink, notifier Notifier, logger *zap.Logger) *ListController[models.Article] {
	spec, _ := Spec(ViewArticles)
	return NewListController(ListOptions[models.Article]{
		Spec: spec,
		Fetch: func(ctx context.Context, query url.Values) (Page[models.Article], error) {
			items, total, err := backend.ListArticles(ctx, query)
			return Page[models.Article]{Items: items, Total: total}, err
		},
		Render:   renderer.Article,
		ID:       func(a models.Article) string { return a.ID },
		Sink:     sink,
		Notifier: notifier,
		Logger:   logger,
	})
}

// NewInfoList builds the info list controller.
func NewInfoList(backend ContentBackend, renderer *Renderer, sink TableSink, notifier Notifier, logger *zap.Logger) *ListController[models.InfoItem] {
	spec, _ := Spec(ViewInfo)
	return NewListController(ListOptions[models.InfoItem]{
		Spec: spec,
		Fetch: func(ctx context.Context, query url.Values) (Page[models.InfoItem], error) {
			items, total, err := backend.ListInfo(ctx, query)
			return Page[models.InfoItem]{Items: items, Total: total}, err
		},
		Render:   renderer.Info,
		ID:       func(i models.InfoItem) string { return i.ID },
		Sink:     sink,
		Notifier: notifier,
		Logger:   logger,
	})
}

// NewMaterialList builds the material list controller. The material API only
// reports whether another page exists, so the total is the smallest count
// consistent with that answer.
func NewMaterialList(backend ContentBackend, renderer *Renderer, sink TableSink, notifier Notifier, logger *zap.Logger) *ListController[models.Material] {
	spec, _ := Spec(ViewMaterials)
	return NewListController(ListOptions[models.Material]{
		Spec: spec,
		Fetch: func(ctx context.Context, query url.Values) (Page[models.Material], error) {
			items, hasMore, err := backend.ListMaterials(ctx, query)
			if err != nil {
				return Page[models.Material]{}, err
			}
			page, _ := strconv.Atoi(query.Get("page"))
			size, _ := strconv.Atoi(query.Get("page_size"))
			total := (page-1)*size + len(items)
			if hasMore {
				total++
			}
			return Page[models.Material]{Items: items, Total: total}, nil
		},
		Render:   renderer.Material,
		ID:       func(m models.Material) string { return m.ID },
		Sink:     sink,
		Notifier: notifier,
		Logger:   logger,
	})
}

// DeleteContent confirms and deletes one content row, then reloads the list.
// A storage cleanup failure is surfaced as a warning after the success toast.
func DeleteContent[T any](ctx context.Context, backend ContentBackend, list *ListController[T], kind ViewKind, id, title string, confirm Confirmer, notifier Notifier) bool {
	if !confirm.Confirm(fmt.Sprintf("Hapus \"%s\"? Tindakan ini tidak dapat dibatalkan.", title)) {
		return false
	}
	res, err := backend.DeleteContent(ctx, kind, id)
	if err != nil {
		notifier.Notify(LevelError, "Gagal menghapus: "+errorMessage(err))
		return false
	}
	notifier.Notify(LevelSuccess, MsgContentDeleted)
	if res != nil && res.Warning != "" {
		notifier.Notify(LevelWarning, res.Warning)
	}
	list.Load(ctx)
	return true
}
