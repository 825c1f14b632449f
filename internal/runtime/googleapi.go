// internal/runtime/googleapi.go adapts *gmail.Service to our small interface
package runtime

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/inboxtriage/internal/gmail"
)

const userID = "me"

type googleClient struct{ svc *gmail.Service }

func NewGoogleAPIClient(svc *gmail.Service) gc.Client { return &googleClient{svc} }

func (g *googleClient) List(ctx context.Context, q gc.Query, pageSize int) ([]gc.MessageID, error) {
	call := g.svc.Users.Messages.List(userID).Q(q.Raw)
	if pageSize > 0 {
		call = call.MaxResults(int64(pageSize))
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	ids := make([]gc.MessageID, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, gc.MessageID(m.Id))
	}
	return ids, nil
}

func (g *googleClient) GetMetadata(ctx context.Context, id gc.MessageID, headers []string) (gc.MessageMeta, error) {
	msg, err := g.svc.Users.Messages.Get(userID, string(id)).
		Format("metadata").
		MetadataHeaders(headers...).
		Context(ctx).
		Do()
	if err != nil {
		return gc.MessageMeta{}, fmt.Errorf("get message %s: %w", id, err)
	}
	meta := gc.MessageMeta{ID: id}
	if msg.Payload != nil {
		meta.Headers = make([]gc.Header, 0, len(msg.Payload.Headers))
		for _, h := range msg.Payload.Headers {
			meta.Headers = append(meta.Headers, gc.Header{Name: h.Name, Value: h.Value})
		}
	}
	return meta, nil
}

func (g *googleClient) Trash(ctx context.Context, id gc.MessageID) error {
	if _, err := g.svc.Users.Messages.Trash(userID, string(id)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("trash message %s: %w", id, err)
	}
	return nil
}

func (g *googleClient) Modify(ctx context.Context, id gc.MessageID, ops gc.ModifyOps) error {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    labelStrings(ops.AddLabels),
		RemoveLabelIds: labelStrings(ops.RemoveLabels),
	}
	if _, err := g.svc.Users.Messages.Modify(userID, string(id), req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("modify message %s: %w", id, err)
	}
	return nil
}

func labelStrings(ids []gc.LabelID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
