// Command minqtyctl maintains the minimum sales quantities of the article catalog
// and evaluates the rule against it.
package main

import (
	"os"
)

func main() {
	rootCmd, app := newRootCmd()
	if err := app.run(rootCmd); err != nil {
		os.Exit(1)
	}
}
