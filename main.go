// Command subkill is a terminal client for the SubKiller subscription tracker.
package main

import "github.com/theirongolddev/subkill/cmd"

func main() {
	cmd.Execute()
}
