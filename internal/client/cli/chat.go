package cli

import (
	"context"
	"fmt"
)

// Chat prints the credentials the hosted chat needs. With a listing id it
// also opens the channel with that listing's seller.
func (a *App) Chat(ctx context.Context, listing string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	s, err := a.chat.Connect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Chat ready for user %s\n", s.UserID)

	if listing == "" {
		return nil
	}
	id, err := parseID(listing)
	if err != nil {
		return err
	}
	channel, err := a.chat.OpenChannel(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Channel: %s\n", channel)
	return nil
}
