package shared

import "context"

// Role is the coarse permission level attached to an actor.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSales     Role = "sales"
	RoleWarehouse Role = "warehouse"
	RoleManager   Role = "manager"
	RoleFinance   Role = "finance"
	RoleTrainer   Role = "trainer"
)

// Actor identifies the authenticated user performing a request.
// Write operations take the actor as an explicit parameter; the context
// value exists only so middleware can hand it to handlers.
type Actor struct {
	ID    int64
	Name  string
	Email string
	Role  Role
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok && actor.ID != 0
}
