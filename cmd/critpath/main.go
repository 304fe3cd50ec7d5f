// Command critpath schedules projects of dependent tasks on a working-day
// calendar and reports critical paths and delay impact.
package main

import "github.com/papapumpkin/critpath/cmd"

func main() {
	cmd.Execute()
}
