// Package main is the entry point for the unitwizard command.
package main

func main() {
	Execute()
}
