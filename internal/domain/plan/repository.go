package plan

import "context"

// Repository provides read access to the plan catalog
type Repository interface {
	Get(ctx context.Context, id string) (*Plan, error)
}
