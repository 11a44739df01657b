// Package main provides the Strata engine CLI.
package main

import (
	"fmt"
	"os"

	"github.com/born-ml/strata/backend/webgpu"
	"github.com/born-ml/strata/layer"
	"github.com/born-ml/strata/net"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Strata Engine %s\n", version)
			return
		case "layers":
			for _, t := range layer.DefaultRegistry().Types() {
				fmt.Println(t)
			}
			return
		case "backends":
			fmt.Println("generic: available")
			if webgpu.Available() {
				fmt.Println("webgpu: available")
			} else {
				fmt.Println("webgpu: unavailable")
			}
			return
		case "check":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: strata check <net.json>")
				os.Exit(2)
			}
			if err := check(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "strata: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Strata Engine - Layer Execution for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version            Show version")
	fmt.Println("  layers             List registered layer types")
	fmt.Println("  backends           Show backend availability")
	fmt.Println("  check <net.json>   Build a network spec and report errors")
}

// check builds the network, which runs every layer's engine resolution,
// SetUp, and Reshape, then prints the resulting blob shapes.
func check(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	spec, err := net.ParseSpec(f)
	if err != nil {
		return err
	}
	n, err := net.New(spec, layer.DefaultRegistry())
	if err != nil {
		return err
	}

	fmt.Printf("net %q: %d layer(s) ok\n", n.Name(), len(n.Layers()))
	for _, ls := range spec.Layers {
		for _, top := range ls.Tops {
			fmt.Printf("  %-20s %v\n", top, n.Blob(top).Shape())
		}
	}
	return nil
}
