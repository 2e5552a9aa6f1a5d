package coursecontent

// AppendRequest appends Item to the document ContentID, or creates a new
// document from Metadata when ContentID is empty.
type AppendRequest struct {
	Path      ContentPath
	ContentID string
	Item      ContentItem
	Metadata  Metadata
}

// ReplaceRequest replaces the item at OriginalPosition with Item and applies
// the editable metadata. A nil Item leaves ContentData untouched.
// Metadata.ContentType is ignored; the stored type is kept.
type ReplaceRequest struct {
	Path             ContentPath
	ContentID        string
	Item             ContentItem
	OriginalPosition Position
	Metadata         Metadata
}

// RemoveRequest removes the item at Position, and/or the whole document
// depending on the service's DeleteMode.
type RemoveRequest struct {
	Path      ContentPath
	ContentID string
	Position  Position
}

// AddItemRequest adds an item after checking the document type and resolving
// the item's position. An unset item position is allocated.
type AddItemRequest struct {
	Path      ContentPath
	ContentID string
	Item      ContentItem
	Metadata  Metadata
}

// AddItemResult reports where an item was stored.
type AddItemResult struct {
	ContentID string   `json:"contentID"`
	Position  Position `json:"position"`
}

// EditItemRequest replaces the item at PreviousPosition. Item's own position
// is the target position; leave it unset to keep the item in place.
type EditItemRequest struct {
	Path             ContentPath
	ContentID        string
	Metadata         Metadata
	PreviousPosition Position
	Item             ContentItem
}
