// main.go - Application entry point
package main

import "github.com/valpere/tile_merge_tasker/cmd"

func main() {
	cmd.Execute()
}
