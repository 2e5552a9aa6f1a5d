package coursecontent_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/course-content/pkg/coursecontent"
)

func items(ps ...int) []coursecontent.ContentItem {
	out := make([]coursecontent.ContentItem, 0, len(ps))
	for _, p := range ps {
		out = append(out, card(coursecontent.At(p), "c"))
	}
	return out
}

func TestSuggestOrValidatePosition(t *testing.T) {
	tests := []struct {
		name      string
		items     []coursecontent.ContentItem
		requested coursecontent.Position
		want      coursecontent.Position
		wantErr   error
	}{
		{"empty document starts at one", nil, coursecontent.NoPosition, coursecontent.At(1), nil},
		{"max plus one, gaps not filled", items(1, 3), coursecontent.NoPosition, coursecontent.At(4), nil},
		{"unordered storage", items(5, 2), coursecontent.NoPosition, coursecontent.At(6), nil},
		{"free requested position", items(1, 3), coursecontent.At(2), coursecontent.At(2), nil},
		{"occupied requested position", items(1, 3), coursecontent.At(3), coursecontent.NoPosition, coursecontent.ErrInvalidPosition},
		{"zero rejected", nil, coursecontent.At(0), coursecontent.NoPosition, coursecontent.ErrInvalidPosition},
		{"negative rejected", items(1), coursecontent.At(-5), coursecontent.NoPosition, coursecontent.ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coursecontent.SuggestOrValidatePosition(tt.items, tt.requested)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, got.IsSet())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestIgnoresUnsetPositions(t *testing.T) {
	stored := []coursecontent.ContentItem{card(coursecontent.NoPosition, "legacy"), card(coursecontent.At(2), "b")}

	got, err := coursecontent.SuggestOrValidatePosition(stored, coursecontent.NoPosition)
	require.NoError(t, err)
	assert.Equal(t, coursecontent.At(3), got)
}

func TestNonPositivePositionsAlwaysRejected(t *testing.T) {
	layouts := [][]coursecontent.ContentItem{nil, items(1), items(1, 2, 3), items(10)}
	for _, layout := range layouts {
		for _, p := range []int{0, -1, -5, -100} {
			_, err := coursecontent.SuggestOrValidatePosition(layout, coursecontent.At(p))
			assert.ErrorIs(t, err, coursecontent.ErrInvalidPosition, "position %d", p)
		}
	}
}

func TestValidateEditPosition(t *testing.T) {
	stored := items(1, 2, 4)

	tests := []struct {
		name     string
		previous coursecontent.Position
		next     coursecontent.Position
		want     coursecontent.Position
		wantErr  error
	}{
		{"unset keeps previous", coursecontent.At(2), coursecontent.NoPosition, coursecontent.At(2), nil},
		{"self move", coursecontent.At(2), coursecontent.At(2), coursecontent.At(2), nil},
		{"move to gap", coursecontent.At(2), coursecontent.At(3), coursecontent.At(3), nil},
		{"move past end", coursecontent.At(4), coursecontent.At(9), coursecontent.At(9), nil},
		{"collision", coursecontent.At(1), coursecontent.At(4), coursecontent.NoPosition, coursecontent.ErrInvalidPosition},
		{"below one", coursecontent.At(1), coursecontent.At(0), coursecontent.NoPosition, coursecontent.ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coursecontent.ValidateEditPosition(stored, tt.previous, tt.next)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelfMoveAlwaysSucceeds(t *testing.T) {
	layouts := [][]int{{1}, {1, 2}, {3, 1, 2}, {7, 8, 9}}
	for _, layout := range layouts {
		stored := items(layout...)
		for _, p := range layout {
			got, err := coursecontent.ValidateEditPosition(stored, coursecontent.At(p), coursecontent.At(p))
			require.NoError(t, err)
			assert.Equal(t, coursecontent.At(p), got)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want coursecontent.Position
	}{
		{"", coursecontent.NoPosition},
		{"  ", coursecontent.NoPosition},
		{"abc", coursecontent.NoPosition},
		{"3", coursecontent.At(3)},
		{" 12 ", coursecontent.At(12)},
		{"-2", coursecontent.At(-2)},
		{"4.0", coursecontent.At(4)},
		{"4.5", coursecontent.NoPosition},
		{"NaN", coursecontent.NoPosition},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, coursecontent.ParsePosition(tt.in))
		})
	}
}

func TestPositionJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		A coursecontent.Position `json:"a"`
		B coursecontent.Position `json:"b"`
	}{coursecontent.At(2), coursecontent.NoPosition})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2,"b":null}`, string(raw))

	tests := []struct {
		in   string
		want coursecontent.Position
	}{
		{`null`, coursecontent.NoPosition},
		{`5`, coursecontent.At(5)},
		{`5.0`, coursecontent.At(5)},
		{`"7"`, coursecontent.At(7)},
		{`"seven"`, coursecontent.NoPosition},
		{`1.5`, coursecontent.NoPosition},
		{`true`, coursecontent.NoPosition},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var p coursecontent.Position
			require.NoError(t, json.Unmarshal([]byte(tt.in), &p))
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPositionEqual(t *testing.T) {
	assert.True(t, coursecontent.At(1).Equal(coursecontent.At(1)))
	assert.False(t, coursecontent.At(1).Equal(coursecontent.At(2)))
	assert.False(t, coursecontent.NoPosition.Equal(coursecontent.NoPosition))
	assert.False(t, coursecontent.At(0).Equal(coursecontent.NoPosition))
	assert.Equal(t, "unset", coursecontent.NoPosition.String())
}

func TestPositionUpperBound(t *testing.T) {
	_, err := coursecontent.SuggestOrValidatePosition(items(1), coursecontent.At(coursecontent.MaxPosition+1))
	assert.ErrorIs(t, err, coursecontent.ErrInvalidPosition)

	got, err := coursecontent.SuggestOrValidatePosition(items(1), coursecontent.At(coursecontent.MaxPosition))
	require.NoError(t, err)
	assert.Equal(t, coursecontent.At(coursecontent.MaxPosition), got)

	_, err = coursecontent.SuggestOrValidatePosition(items(coursecontent.MaxPosition), coursecontent.NoPosition)
	assert.ErrorIs(t, err, coursecontent.ErrInvalidPosition, "no position left to allocate")

	_, err = coursecontent.ValidateEditPosition(items(1), coursecontent.At(1), coursecontent.At(coursecontent.MaxPosition+1))
	assert.ErrorIs(t, err, coursecontent.ErrInvalidPosition)

	for _, in := range []string{"9223372036854775807", "1e300", "99999999999999999999"} {
		p := coursecontent.ParsePosition(in)
		require.True(t, p.IsSet(), in)
		_, err := coursecontent.SuggestOrValidatePosition(nil, p)
		assert.ErrorIs(t, err, coursecontent.ErrInvalidPosition, in)
	}

	var p coursecontent.Position
	require.NoError(t, json.Unmarshal([]byte(`9223372036854775807`), &p))
	_, err = coursecontent.SuggestOrValidatePosition(nil, p)
	assert.ErrorIs(t, err, coursecontent.ErrInvalidPosition)
}
