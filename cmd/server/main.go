package main // Entry point package

import "github.com/iliyamo/inventory-service/cmd/server/commands"

func main() {
	commands.Execute()
}
