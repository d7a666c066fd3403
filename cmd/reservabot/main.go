package main

import (
	_ "time/tzdata"

	"github.com/example/reserva-bot/cmd"
)

func main() {
	cmd.Execute()
}
