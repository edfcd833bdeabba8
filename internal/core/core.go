// Package core composes feeds and applies the write rules of the blog on top
// of the repositories in package store. The viewer is always passed in
// explicitly; nil means anonymous.
package core

import (
	"log/slog"

	"github.com/siahsang/yatube/internal/store"
)

// PageSizes are the page sizes of the different feed scopes.
type PageSizes struct {
	Index     int
	Group     int
	Profile   int
	Following int
}

func DefaultPageSizes() PageSizes {
	return PageSizes{Index: 10, Group: 10, Profile: 5, Following: 5}
}

type Core struct {
	log       *slog.Logger
	store     *store.Store
	pageSizes PageSizes
}

func NewCore(st *store.Store, log *slog.Logger, pageSizes PageSizes) *Core {
	return &Core{
		log:       log,
		store:     st,
		pageSizes: pageSizes,
	}
}
