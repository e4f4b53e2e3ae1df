package objstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/finneas-io/edgar/adapter/bucket"
)

// objstore keeps objects under a key prefix in one S3 bucket.
type objstore struct {
	name   string
	prefix string
	client s3iface.S3API
}

func New(awsSession *session.Session, name, prefix string) *objstore {
	return NewWithClient(s3.New(awsSession), name, prefix)
}

func NewWithClient(client s3iface.S3API, name, prefix string) *objstore {
	return &objstore{client: client, name: name, prefix: prefix}
}

func (o *objstore) GetObject(key string) ([]byte, error) {
	out, err := o.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(o.name),
		Key:    aws.String(o.prefix + key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", bucket.ErrNotFound, key)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (o *objstore) PutObject(key string, data []byte) error {
	_, err := o.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(o.name),
		Key:         aws.String(o.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (o *objstore) DeleteObject(key string) error {
	_, err := o.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(o.name),
		Key:    aws.String(o.prefix + key),
	})
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return false
	}
	return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
}
