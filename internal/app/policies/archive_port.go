package policies

import "context"

// DocumentArchive stores rendered documents and returns where they can be fetched.
type DocumentArchive interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
