package server

import (
	"github.com/blevesearch/bleve/v2"
)

func newMemIndex() (bleve.Index, error) {
	return bleve.NewMemOnly(bleve.NewIndexMapping())
}
