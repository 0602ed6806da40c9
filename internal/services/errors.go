package services

import "errors"

var errEmptyEmbedding = errors.New("gateway returned no embedding")
