package generationtest

import (
	"context"
	"sync"

	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/generation"
)

// Reply scripts one chat turn. Fragments are streamed in order; Err, when
// set, is returned after them. Block holds the stream open after the
// fragments until the context is cancelled or Release is closed.
type Reply struct {
	Fragments []string
	Err       error
	Block     bool
	Release   chan struct{}
}

// ImageReply scripts one image generation.
type ImageReply struct {
	URL string
	Err error
}

// Call records what a chat request carried.
type Call struct {
	History           []entity.Message
	SystemInstruction string
}

// Client is a scripted generation.Client. Replies are consumed in order;
// once exhausted every call answers "ok".
type Client struct {
	mu      sync.Mutex
	replies []Reply
	images  []ImageReply

	Calls       []Call
	ImageCalls  []string
	StreamStart chan struct{}
}

var _ generation.Client = (*Client)(nil)

func NewClient(replies ...Reply) *Client {
	return &Client{replies: replies}
}

func (c *Client) PushReply(r Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, r)
}

func (c *Client) PushImage(r ImageReply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, r)
}

func (c *Client) LastCall() Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Calls) == 0 {
		return Call{}
	}
	return c.Calls[len(c.Calls)-1]
}

func (c *Client) next(history []entity.Message, systemInstruction string) Reply {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, Call{
		History:           entity.CloneMessages(history),
		SystemInstruction: systemInstruction,
	})
	if len(c.replies) == 0 {
		return Reply{Fragments: []string{"ok"}}
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r
}

func (c *Client) CompleteChat(_ context.Context, history []entity.Message, systemInstruction string) (string, error) {
	r := c.next(history, systemInstruction)
	if r.Err != nil {
		return "", r.Err
	}
	var text string
	for _, f := range r.Fragments {
		text += f
	}
	return text, nil
}

func (c *Client) StreamChat(ctx context.Context, history []entity.Message, systemInstruction string) (generation.Stream, error) {
	r := c.next(history, systemInstruction)
	if c.StreamStart != nil {
		select {
		case c.StreamStart <- struct{}{}:
		default:
		}
	}

	return generation.NewStream(ctx, func(ctx context.Context, emit generation.EmitFunc) error {
		for _, f := range r.Fragments {
			if err := emit(f); err != nil {
				return err
			}
		}
		if r.Block {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.Release:
			}
		}
		return r.Err
	}), nil
}

func (c *Client) GenerateImage(_ context.Context, prompt string, _ entity.ImageStyle) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ImageCalls = append(c.ImageCalls, prompt)
	if len(c.images) == 0 {
		return "data:image/png;base64,aW1n", nil
	}
	r := c.images[0]
	c.images = c.images[1:]
	return r.URL, r.Err
}
