//go:build !test

package main

import "log"

func main() {
	if err := Parse(); err != nil {
		log.Fatal(err)
	}
}
