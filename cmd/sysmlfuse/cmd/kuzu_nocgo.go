//go:build !cgo

package cmd

import (
	"errors"

	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
)

func openKuzu(string) (store.GraphStore, error) {
	return nil, errors.New("the kuzu graph store needs a cgo build; use store.graph: memory")
}
