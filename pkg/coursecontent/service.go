package coursecontent

import (
	"context"
)

// Service defines the main interface for course content documents
type Service interface {
	// Document mutations
	AppendOrCreate(ctx context.Context, req AppendRequest) (string, error)
	ReplaceItem(ctx context.Context, req ReplaceRequest) error
	RemoveItem(ctx context.Context, req RemoveRequest) error

	// Guarded item operations
	AddItem(ctx context.Context, req AddItemRequest) (*AddItemResult, error)
	EditItem(ctx context.Context, req EditItemRequest) (Position, error)

	// Position and type checks against the stored document
	SuggestPosition(ctx context.Context, path ContentPath, contentID string, requested Position) (Position, error)
	CheckEditPosition(ctx context.Context, path ContentPath, contentID string, previous, next Position) (Position, error)
	CheckContentType(ctx context.Context, path ContentPath, contentID string, contentNo int, contentType string) (bool, error)
	CheckItemExists(ctx context.Context, path ContentPath, contentID string, contentType string, position Position) (bool, error)

	// Reads
	GetContent(ctx context.Context, path ContentPath, contentID string) (*ContentView, error)
	ListContent(ctx context.Context, path ContentPath) ([]*ContentView, error)
	LoadContent(ctx context.Context, path ContentPath, contentID string) ([]*ContentView, error)
}
