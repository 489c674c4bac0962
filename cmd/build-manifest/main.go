package main

import "github.com/oshokin/build-manifest/cmd/build-manifest/cmd"

func main() {
	cmd.Execute()
}
