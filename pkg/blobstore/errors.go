package blobstore

import "errors"

var ErrNotFound = errors.New("chunk text not found")
