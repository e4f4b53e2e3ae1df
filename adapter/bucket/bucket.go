package bucket

import "errors"

var ErrNotFound = errors.New("object not found")

type Bucket interface {
	GetObject(key string) ([]byte, error)
	PutObject(key string, data []byte) error
	DeleteObject(key string) error
}
