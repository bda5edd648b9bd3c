package consumer

import "context"

// Fanout dispatches each message to every handler in order. The first
// error aborts the chain so the message is retried as a whole.
type Fanout []Handler

// Handle implements Handler.
func (f Fanout) Handle(ctx context.Context, msg Message) error {
	for _, h := range f {
		if err := h.Handle(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
