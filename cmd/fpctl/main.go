// fpctl is the operator CLI for ZFM/R30x fingerprint modules: enrollment,
// identification, template management, database backup and a small HTTP
// server for controllers that cannot sit on the serial bus.
package main

import "github.com/banshee-data/touchstone/cmd/fpctl/commands"

func main() {
	commands.Execute()
}
