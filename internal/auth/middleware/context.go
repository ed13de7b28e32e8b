package auth

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated user id on the context. Everything
// downstream of JWTMiddleware reads it back with SubjectFromContext.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}
