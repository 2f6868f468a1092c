package main

import (
	"github.com/fieldtalks/iolink.go/pkg/cli/sh"

	_ "github.com/fieldtalks/iolink.go/pkg/cli/cmds/linkops"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
