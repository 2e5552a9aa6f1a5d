package coursecontent

import (
	"fmt"
	"strings"
)

// Path segment names of the course hierarchy.
const (
	segmentCourse  = "course"
	segmentUnit    = "unit"
	segmentTask    = "task"
	segmentContent = "content"
)

// TaskPath identifies one task inside a course unit.
type TaskPath struct {
	CourseID string
	UnitID   string
	TaskID   string
}

// NewTaskPath builds a validated TaskPath.
func NewTaskPath(courseID, unitID, taskID string) (TaskPath, error) {
	p := TaskPath{CourseID: courseID, UnitID: unitID, TaskID: taskID}
	if err := p.Validate(); err != nil {
		return TaskPath{}, err
	}
	return p, nil
}

// Validate checks that every segment is present and free of separators.
func (p TaskPath) Validate() error {
	segments := [...]struct{ name, value string }{
		{segmentCourse, p.CourseID},
		{segmentUnit, p.UnitID},
		{segmentTask, p.TaskID},
	}
	for _, s := range segments {
		name, v := s.name, s.value
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s id is required", ErrInvalidPath, name)
		}
		if strings.ContainsAny(v, `/\`) {
			return fmt.Errorf("%w: %s id %q contains a path separator", ErrInvalidPath, name, v)
		}
		if v == "." || v == ".." {
			return fmt.Errorf("%w: %s id %q is reserved", ErrInvalidPath, name, v)
		}
	}
	return nil
}

// Contents returns the content collection under the task.
func (p TaskPath) Contents() ContentPath {
	return ContentPath{task: p}
}

// ContentPath is the content collection of one task. It can only be obtained
// from a TaskPath.
type ContentPath struct {
	task TaskPath
}

// Task returns the owning task.
func (c ContentPath) Task() TaskPath { return c.task }

// Validate reports ErrInvalidPath for a zero or malformed path.
func (c ContentPath) Validate() error { return c.task.Validate() }

// String renders course/{c}/unit/{u}/task/{t}/content.
func (c ContentPath) String() string {
	return strings.Join([]string{
		segmentCourse, c.task.CourseID,
		segmentUnit, c.task.UnitID,
		segmentTask, c.task.TaskID,
		segmentContent,
	}, "/")
}

// Document renders the path of the document id inside the collection.
func (c ContentPath) Document(id string) string {
	return c.String() + "/" + id
}
