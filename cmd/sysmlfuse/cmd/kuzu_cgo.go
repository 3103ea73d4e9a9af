//go:build cgo

package cmd

import (
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/store/kuzu"
)

func openKuzu(path string) (store.GraphStore, error) {
	gs, err := kuzu.Open(path)
	if err != nil {
		return nil, err
	}
	return gs, nil
}
