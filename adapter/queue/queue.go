package queue

import "errors"

var ErrDrained = errors.New("Queue has been drained")

type Queue interface {
	SendMessage(msg []byte) error
	RecvMessage() ([]byte, error)
	Close() error
}
