package cli

import (
	"errors"

	"biolink-cli/internal/mutate"
)

var errNoPage = errors.New("no current page; run `biolink init` or `biolink pages use <page-id>` (or pass --page)")

func errNotFound(kind, id string) error {
	return mutate.NotFoundError{Kind: kind, ID: id}
}
