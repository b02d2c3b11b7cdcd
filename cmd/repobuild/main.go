package main

import "github.com/vandevoorde/repobuild/cmd/repobuild/internal"

func main() {
	internal.Execute()
}
