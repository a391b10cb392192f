package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/JonMunkholm/EntityEditor/cmd"
)

//go:embed web/*
var webFS embed.FS

func main() {
	if err := cmd.Execute(webFS); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
