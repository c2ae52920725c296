// The main package for the ranked-crawler executable.
package main

import (
	"github.com/arenastats/ranked-crawler/cmd"
)

func main() {
	cmd.Execute()
}
