package main

import (
	"context"

	"castanet-watch/cmd/castanet-watch/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
