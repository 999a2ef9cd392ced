package console

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

func newAccountHarness() (*fakeBackend, *ListController[models.Profile], *recordingSink, *recordingNotifier) {
	backend := seedBackend()
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	list := NewAccountList(backend, NewRenderer(nil), sink, notifier, nil)
	return backend, list, sink, notifier
}

func TestListControllerRendersLoadingBeforeData(t *testing.T) {
	_, list, sink, _ := newAccountHarness()

	list.Load(context.Background())

	require.Len(t, sink.renders, 2)
	loading := sink.renders[0]
	require.Len(t, loading, 10)
	for _, row := range loading {
		assert.Equal(t, RowLoading, row.Kind)
		assert.Len(t, row.Cells, 4)
	}
	rows := sink.last()
	require.Len(t, rows, 10)
	assert.Equal(t, "Pengguna 24", rows[0].Cells[0])
	require.Len(t, sink.pagers, 1)
	assert.Equal(t, "Halaman 1 dari 3", sink.pagers[0].Label)
	assert.True(t, sink.pagers[0].PrevDisabled)
	assert.False(t, sink.pagers[0].NextDisabled)
}

func TestListControllerRoleTabAndPaging(t *testing.T) {
	backend, list, sink, _ := newAccountHarness()
	ctx := context.Background()

	list.SetRole(ctx, "siswa")
	assert.Equal(t, "siswa", backend.lastQuery().Get("role"))
	rows := sink.last()
	require.Len(t, rows, 10)
	for _, row := range rows {
		assert.Equal(t, "siswa", row.Cells[2])
	}
	pager := list.Pager()
	assert.Equal(t, 2, pager.TotalPages)
	assert.Equal(t, "Halaman 1 dari 2", pager.Label)

	require.True(t, list.Next(ctx))
	assert.Equal(t, "2", backend.lastQuery().Get("page"))
	assert.Len(t, sink.last(), 5)
	assert.True(t, list.Pager().NextDisabled)
	assert.False(t, list.Next(ctx))

	list.SetRole(ctx, "wali")
	assert.Equal(t, "siswa", list.State().Role)
	assert.Equal(t, 1, list.State().Page)

	require.True(t, list.Prev(ctx))
	assert.Equal(t, 0, list.State().Page)
	assert.False(t, list.Prev(ctx))

	list.SetRole(ctx, "all")
	assert.Empty(t, backend.lastQuery().Get("role"))
	assert.Equal(t, "Halaman 1 dari 3", list.Pager().Label)
}

func TestListControllerFilterChangeReturnsToFirstPage(t *testing.T) {
	backend, list, _, _ := newAccountHarness()
	ctx := context.Background()

	list.GoTo(ctx, 2)
	assert.Equal(t, "3", backend.lastQuery().Get("page"))

	list.SetSort(ctx, "name_asc")
	assert.Equal(t, "1", backend.lastQuery().Get("page"))
	assert.Equal(t, "name_asc", backend.lastQuery().Get("sort"))

	list.GoTo(ctx, 1)
	list.SetSearch(ctx, "pengguna 1")
	assert.Equal(t, 0, list.State().Page)
	assert.Equal(t, "pengguna 1", backend.lastQuery().Get("search"))
}

func TestListControllerSearchAndEmptyResult(t *testing.T) {
	_, list, sink, _ := newAccountHarness()
	ctx := context.Background()

	list.SetSearch(ctx, "USER07@")
	rows := sink.last()
	require.Len(t, rows, 1)
	assert.Equal(t, "user07@example.com", rows[0].Cells[1])

	list.SetSearch(ctx, "tidak-ada")
	rows = sink.last()
	require.Len(t, rows, 1)
	assert.Equal(t, RowEmpty, rows[0].Kind)
	assert.Equal(t, []string{"Tidak ada akun ditemukan."}, rows[0].Cells)
	assert.Equal(t, 0, list.Pager().TotalPages)
	assert.Equal(t, "Halaman 1 dari 1", list.Pager().Label)
}

func TestListControllerFetchFailure(t *testing.T) {
	backend, list, sink, notifier := newAccountHarness()
	backend.listErr = errBoom

	list.Load(context.Background())

	rows := sink.last()
	require.Len(t, rows, 1)
	assert.Equal(t, RowError, rows[0].Kind)
	assert.Equal(t, "Gagal memuat akun.", rows[0].Cells[0])
	assert.Empty(t, sink.pagers)
	require.Len(t, notifier.notes, 1)
	assert.Equal(t, note{LevelError, "Gagal memuat akun."}, notifier.notes[0])
}

func TestListControllerFailedLoadForgetsPreviousPage(t *testing.T) {
	backend, list, sink, _ := newAccountHarness()
	ctx := context.Background()
	list.Load(ctx)
	_, ok := list.Lookup("p24")
	require.True(t, ok)

	backend.listErr = errBoom
	list.GoTo(ctx, 1)

	assert.Equal(t, RowError, sink.last()[0].Kind)
	_, ok = list.Lookup("p24")
	assert.False(t, ok)
	pager := list.Pager()
	assert.Equal(t, 0, pager.TotalPages)
	assert.True(t, pager.NextDisabled)
}

func TestListControllerSetRoleNormalizesTab(t *testing.T) {
	backend, list, _, _ := newAccountHarness()
	ctx := context.Background()

	list.SetRole(ctx, " Siswa ")
	require.Len(t, backend.queries, 1)
	assert.Equal(t, "siswa", backend.lastQuery().Get("role"))
	assert.Equal(t, "siswa", list.State().Role)

	list.SetRole(ctx, "wali")
	assert.Len(t, backend.queries, 1)
	assert.Equal(t, "siswa", list.State().Role)
}

func TestListControllerRecoversPanickingFetch(t *testing.T) {
	spec, _ := Spec(ViewArticles)
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	list := NewListController(ListOptions[models.Article]{
		Spec: spec,
		Fetch: func(context.Context, url.Values) (Page[models.Article], error) {
			panic("decoder exploded")
		},
		Render:   NewRenderer(nil).Article,
		ID:       func(a models.Article) string { return a.ID },
		Sink:     sink,
		Notifier: notifier,
	})

	list.Load(context.Background())

	assert.Equal(t, RowError, sink.last()[0].Kind)
	assert.Equal(t, []string{"Gagal memuat artikel."}, notifier.messages())
}

func TestListControllerDropsStaleResponses(t *testing.T) {
	backend := seedBackend()
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true
	spec, _ := Spec(ViewAccounts)
	sink := &recordingSink{}
	list := NewListController(ListOptions[models.Profile]{
		Spec: spec,
		Fetch: func(ctx context.Context, query url.Values) (Page[models.Profile], error) {
			if first {
				first = false
				close(entered)
				<-release
			}
			items, total, err := backend.ListAccounts(ctx, query)
			return Page[models.Profile]{Items: items, Total: total}, err
		},
		Render:   NewRenderer(nil).Account,
		ID:       func(p models.Profile) string { return p.ID },
		Sink:     sink,
		Notifier: &recordingNotifier{},
	})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		list.Load(ctx)
	}()
	<-entered

	list.SetRole(ctx, "admin")
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("first load did not return")
	}

	rows := sink.last()
	require.Len(t, rows, 10)
	for _, row := range rows {
		assert.Equal(t, "admin", row.Cells[2])
	}
	require.Len(t, sink.pagers, 1)
	assert.Equal(t, 1, sink.pagers[0].TotalPages)
	_, stale := list.Lookup("p00")
	assert.False(t, stale)
}

func TestListControllerLookupTracksCurrentPage(t *testing.T) {
	_, list, _, _ := newAccountHarness()
	ctx := context.Background()

	list.Load(ctx)
	_, ok := list.Lookup("p24")
	assert.True(t, ok)

	list.GoTo(ctx, 2)
	_, ok = list.Lookup("p24")
	assert.False(t, ok)
	profile, ok := list.Lookup("p00")
	require.True(t, ok)
	assert.Equal(t, "user00@example.com", profile.Email)
}

func TestMaterialListApproximatesTotal(t *testing.T) {
	backend := &fakeContentBackend{materials: make([]models.Material, 9), hasMore: true}
	sink := &recordingSink{}
	list := NewMaterialList(backend, NewRenderer(nil), sink, &recordingNotifier{}, nil)

	list.GoTo(context.Background(), 1)

	assert.Equal(t, "9", backend.lastQuery.Get("page_size"))
	require.Len(t, sink.pagers, 1)
	assert.Equal(t, 3, sink.pagers[0].TotalPages)
	assert.False(t, sink.pagers[0].NextDisabled)

	backend.hasMore = false
	backend.materials = backend.materials[:4]
	list.Load(context.Background())
	assert.Equal(t, 2, list.Pager().TotalPages)
	assert.True(t, list.Pager().NextDisabled)
}

func TestListControllerApplyLoadsOnce(t *testing.T) {
	backend, list, _, _ := newAccountHarness()

	list.Apply(context.Background(), QueryState{Page: 1, Role: "Siswa", Search: "pengguna", SortKey: "name", SortDir: SortAsc})

	require.Len(t, backend.queries, 1)
	q := backend.lastQuery()
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "siswa", q.Get("role"))
	assert.Equal(t, "pengguna", q.Get("search"))
	assert.Equal(t, "name_asc", q.Get("sort"))

	list.Apply(context.Background(), QueryState{Role: "wali", SortKey: "email", SortDir: SortAsc})
	q = backend.lastQuery()
	assert.Equal(t, "siswa", q.Get("role"))
	assert.Equal(t, "created_at_desc", q.Get("sort"))
	assert.Equal(t, "1", q.Get("page"))
}
