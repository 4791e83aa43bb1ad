package ws

import (
	"context"

	"github.com/judgegodwins/pericon-server/game"
)

type EventHandler func(ctx context.Context, msg Inbound, c *Client) error

// UsernameHandler claims a name on the connection and seats it in the room.
func UsernameHandler(ctx context.Context, msg Inbound, c *Client) error {
	name, ok := decodeString(msg.Value)
	if !ok {
		return game.ErrInvalidUsername
	}

	if current := c.Name(); current != "" && current != name {
		return game.ErrUsernameChange
	}

	out, err := c.manager.game.Join(ctx, c.roomID, name)
	if err != nil {
		return err
	}

	c.setName(name)
	// join the group before dispatch so the joiner sees its own broadcasts
	c.Join()

	c.manager.Dispatch(c, out)
	return nil
}

func UseCardHandler(ctx context.Context, msg Inbound, c *Client) error {
	name := c.Name()
	if name == "" {
		return game.ErrNoUsername
	}

	token, ok := decodeString(msg.Value)
	if !ok {
		return game.ErrInvalidCard
	}

	out, err := c.manager.game.UseCard(ctx, c.roomID, name, token)
	if err != nil {
		return err
	}

	c.manager.Dispatch(c, out)
	return nil
}

func MoreCardsHandler(ctx context.Context, msg Inbound, c *Client) error {
	name := c.Name()
	if name == "" {
		return game.ErrNoUsername
	}

	out, err := c.manager.game.MoreCards(ctx, c.roomID, name)
	if err != nil {
		return err
	}

	c.manager.Dispatch(c, out)
	return nil
}

func MiddleCardHandler(ctx context.Context, msg Inbound, c *Client) error {
	out, err := c.manager.game.MiddleCard(ctx, c.roomID)
	if err != nil {
		return err
	}

	c.manager.Dispatch(c, out)
	return nil
}
