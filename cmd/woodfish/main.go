// Package main provides the CLI entrypoint for woodfish.
package main

func main() {
	Execute()
}
