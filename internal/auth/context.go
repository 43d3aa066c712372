// ABOUTME: Request context helpers for propagating the authenticated student
// ABOUTME: Provides WithStudent/StudentFromContext for API handlers

package auth

import (
	"context"

	"github.com/CodeGallantX/quanta/internal/store"
)

// studentContextKey is the key type for storing the student in context.Context.
type studentContextKey struct{}

// WithStudent returns a new context with the authenticated student attached.
func WithStudent(ctx context.Context, student *store.Student) context.Context {
	return context.WithValue(ctx, studentContextKey{}, student)
}

// StudentFromContext retrieves the authenticated student from the context,
// returning nil if not present.
func StudentFromContext(ctx context.Context) *store.Student {
	val := ctx.Value(studentContextKey{})
	if val == nil {
		return nil
	}
	student, ok := val.(*store.Student)
	if !ok {
		return nil
	}
	return student
}
