package coursecontent_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/course-content/pkg/coursecontent"
	"github.com/tendant/course-content/pkg/coursecontent/store/memory"
)

// gatedStore holds every read until the expected number of readers have
// taken their snapshot, forcing concurrent mutations onto the same revision.
type gatedStore struct {
	*memory.Store
	armed atomic.Bool
	reads sync.WaitGroup
}

func (g *gatedStore) arm(readers int) {
	g.reads.Add(readers)
	g.armed.Store(true)
}

func (g *gatedStore) Get(ctx context.Context, path coursecontent.ContentPath, id string) (coursecontent.Snapshot, error) {
	snap, err := g.Store.Get(ctx, path, id)
	if g.armed.Load() {
		g.reads.Done()
		g.reads.Wait()
	}
	return snap, err
}

// appendConcurrently runs two appends that both read the one-item document
// before either writes, and returns the final item titles and call errors.
func appendConcurrently(t *testing.T, mode coursecontent.ConcurrencyMode) ([]string, []error) {
	t.Helper()
	ctx := context.Background()
	store := &gatedStore{Store: memory.New()}
	svc, err := coursecontent.New(
		coursecontent.WithStore(store),
		coursecontent.WithClock(func() time.Time { return editedAt }),
		coursecontent.WithConcurrency(mode),
	)
	require.NoError(t, err)

	path := testPath(t)
	id, err := svc.AppendOrCreate(ctx, coursecontent.AppendRequest{Path: path, Item: card(coursecontent.At(1), "A"), Metadata: cardMeta(1)})
	require.NoError(t, err)

	store.arm(2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, title := range []string{"B", "C"} {
		wg.Add(1)
		go func(i int, title string) {
			defer wg.Done()
			_, errs[i] = svc.AppendOrCreate(ctx, coursecontent.AppendRequest{Path: path, ContentID: id, Item: card(coursecontent.At(2+i), title)})
		}(i, title)
	}
	wg.Wait()
	store.armed.Store(false)

	view, err := svc.GetContent(ctx, path, id)
	require.NoError(t, err)
	titles := make([]string, 0, len(view.ContentData))
	for _, item := range view.ContentData {
		titles = append(titles, item.(*coursecontent.Card).Title)
	}
	return titles, errs
}

// Under last-writer-wins both appends report success but only one survives.
func TestConcurrentAppendLastWriterWins(t *testing.T) {
	titles, errs := appendConcurrently(t, coursecontent.ConcurrencyLastWriterWins)

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	require.Len(t, titles, 2, "one append is lost")
	assert.Equal(t, "A", titles[0])
	assert.Contains(t, []string{"B", "C"}, titles[1])
}

// Optimistic mode rejects the second commit instead of losing it.
func TestConcurrentAppendOptimistic(t *testing.T) {
	titles, errs := appendConcurrently(t, coursecontent.ConcurrencyOptimistic)

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, coursecontent.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts)
	require.Len(t, titles, 2)
	assert.Equal(t, "A", titles[0])
}
