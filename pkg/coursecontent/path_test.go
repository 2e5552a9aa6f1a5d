package coursecontent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/course-content/pkg/coursecontent"
)

func TestNewTaskPath(t *testing.T) {
	task, err := coursecontent.NewTaskPath("algebra", "u2", "t7")
	require.NoError(t, err)

	contents := task.Contents()
	assert.Equal(t, "course/algebra/unit/u2/task/t7/content", contents.String())
	assert.Equal(t, "course/algebra/unit/u2/task/t7/content/doc-1", contents.Document("doc-1"))
	assert.Equal(t, task, contents.Task())
	assert.NoError(t, contents.Validate())
}

func TestNewTaskPathErrors(t *testing.T) {
	tests := []struct {
		name                 string
		course, unit, taskID string
	}{
		{"missing course", "", "u", "t"},
		{"blank unit", "c", "  ", "t"},
		{"missing task", "c", "u", ""},
		{"separator in id", "c", "u/1", "t"},
		{"backslash in id", `c\1`, "u", "t"},
		{"parent segment", "..", "u", "t"},
		{"current segment", "c", "u", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coursecontent.NewTaskPath(tt.course, tt.unit, tt.taskID)
			assert.ErrorIs(t, err, coursecontent.ErrInvalidPath)
		})
	}
}

func TestZeroContentPathIsInvalid(t *testing.T) {
	var p coursecontent.ContentPath
	assert.ErrorIs(t, p.Validate(), coursecontent.ErrInvalidPath)
}
