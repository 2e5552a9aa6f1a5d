package coursecontent_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tendant/course-content/pkg/coursecontent"
	"github.com/tendant/course-content/pkg/coursecontent/store/memory"
)

var (
	createdAt = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	editedAt  = time.Date(2024, 1, 16, 12, 30, 0, 0, time.UTC)
)

// stepClock returns createdAt on the first call and editedAt afterwards.
func stepClock() func() time.Time {
	calls := 0
	return func() time.Time {
		calls++
		if calls == 1 {
			return createdAt
		}
		return editedAt
	}
}

func testPath(t *testing.T) coursecontent.ContentPath {
	t.Helper()
	task, err := coursecontent.NewTaskPath("course-1", "unit-1", "task-1")
	require.NoError(t, err)
	return task.Contents()
}

func newTestService(t *testing.T, opts ...coursecontent.Option) (coursecontent.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	options := append([]coursecontent.Option{
		coursecontent.WithStore(store),
		coursecontent.WithClock(stepClock()),
	}, opts...)
	svc, err := coursecontent.New(options...)
	require.NoError(t, err)
	return svc, store
}

func card(pos coursecontent.Position, title string) *coursecontent.Card {
	return &coursecontent.Card{Position: pos, Title: title}
}

func flashcard(pos coursecontent.Position, front, back string) *coursecontent.Flashcard {
	return &coursecontent.Flashcard{Position: pos, Front: front, Back: back}
}

func cardMeta(no int) coursecontent.Metadata {
	return coursecontent.Metadata{ContentType: "CARD", ContentNo: no, ContentName: "Cards", ContentDescription: "Warm-up cards"}
}

func positions(items []coursecontent.ContentItem) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, ok := item.ItemPosition().Int()
		if !ok {
			n = -1
		}
		out = append(out, n)
	}
	return out
}

func viewPositions(items []coursecontent.ItemView) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, ok := item.ItemPosition().Int()
		if !ok {
			n = -1
		}
		out = append(out, n)
	}
	return out
}
