// Public domain.

package main

import "github.com/soniakeys/mosaiccat/internal/catprog"

func main() {
	catprog.Main()
}
