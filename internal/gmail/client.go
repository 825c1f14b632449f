package gmail

import "context"

// Client is the narrow mailbox surface required by inboxtriage.
type Client interface {
	List(ctx context.Context, q Query, pageSize int) ([]MessageID, error)
	GetMetadata(ctx context.Context, id MessageID, headers []string) (MessageMeta, error)
	Trash(ctx context.Context, id MessageID) error
	Modify(ctx context.Context, id MessageID, ops ModifyOps) error
}
