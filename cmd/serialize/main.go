package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/lk2023060901/danmu-serial/application"
)

func main() {
	app := application.New(os.Stdout)
	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "serialize: %v\n", err)
		os.Exit(1)
	}
}
