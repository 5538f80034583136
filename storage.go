package entretien

import (
	"context"
)

// RecordManager is the engine's surface for the rendering and listing collaborators.
type RecordManager interface {
	// FormDefinition returns the grouped parent form and the two sub-list
	// vocabularies. A catalog failure yields an error satisfying IsSchemaUnavailable.
	FormDefinition(ctx context.Context) (*FormDefinition, error)

	// Submit persists one parent record and its sub-lists atomically and
	// returns the store-assigned parent key.
	Submit(ctx context.Context, sub *Submission) (int64, error)

	List(ctx context.Context) (*RecordList, error)
	Get(ctx context.Context, num int64) (*StoredRecord, error)
}
