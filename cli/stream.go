package cli

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/xhd2015/clau/types"
)

// streamBufferSize is the number of decoded messages buffered ahead
// of the consumer, the producer blocks once it is full
const streamBufferSize = 16

type streamItem struct {
	msg types.Message
	err error
}

// MessageStream is a finite, non-restartable sequence of messages.
// It ends after a result message, when the producer finishes, or on
// the first error. Next must not be called concurrently.
type MessageStream struct {
	ch     chan streamItem
	cancel context.CancelFunc

	finished  bool
	closeOnce sync.Once
}

// produceFunc emits messages until done, emit returns false once
// the stream is closed and the producer should stop
type produceFunc func(ctx context.Context, emit func(msg types.Message) bool) error

func newMessageStream(ctx context.Context, produce produceFunc) *MessageStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &MessageStream{
		ch:     make(chan streamItem, streamBufferSize),
		cancel: cancel,
	}
	go func() {
		defer cancel()
		defer close(s.ch)
		send := func(item streamItem) bool {
			select {
			case s.ch <- item:
				return true
			case <-ctx.Done():
				return false
			}
		}
		err := produce(ctx, func(msg types.Message) bool {
			return send(streamItem{msg: msg})
		})
		if err != nil && ctx.Err() == nil {
			send(streamItem{err: err})
		}
	}()
	return s
}

// Next returns the next message, or io.EOF once the stream has ended
func (s *MessageStream) Next(ctx context.Context) (types.Message, error) {
	if s.finished {
		return types.Message{}, io.EOF
	}
	select {
	case item, ok := <-s.ch:
		if !ok {
			s.finished = true
			return types.Message{}, io.EOF
		}
		if item.err != nil {
			s.finished = true
			return types.Message{}, item.err
		}
		if item.msg.Type == types.MessageType_Result {
			s.finished = true
			s.release()
		}
		return item.msg, nil
	case <-ctx.Done():
		return types.Message{}, ctx.Err()
	}
}

// release lets the producer run to completion without a consumer
func (s *MessageStream) release() {
	go func() {
		for range s.ch {
		}
	}()
}

// Close stops the producer and kills the child process if it is
// still running. It waits until the producer has exited.
func (s *MessageStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		for range s.ch {
		}
	})
	return nil
}

// Collect returns all remaining messages, up to and including
// the result message
func (s *MessageStream) Collect(ctx context.Context) ([]types.Message, error) {
	var msgs []types.Message
	for {
		msg, err := s.Next(ctx)
		if err == io.EOF {
			return msgs, nil
		}
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
}

// CollectFullResponse concatenates the text of all assistant messages,
// stopping at the first result message or the end of the stream
func (s *MessageStream) CollectFullResponse(ctx context.Context) (string, error) {
	var sb strings.Builder
	for {
		msg, err := s.Next(ctx)
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		switch msg.Type {
		case types.MessageType_Assistant:
			sb.WriteString(msg.Text())
		case types.MessageType_Result:
			return sb.String(), nil
		}
	}
}
