package main

import (
	"context"
	"fmt"

	"github.com/a-h/listingwriter"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(listingwriter.Version)
	return nil
}
