package main

import (
	"fmt"
	"os"

	"github.com/eringen/inkpress"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		runServe()
	case "hashpw":
		if len(os.Args) < 3 {
			exitf("Usage: inkpress hashpw <password>")
		}
		hash, err := inkpress.HashPassword(os.Args[2])
		if err != nil {
			exitf("Error: %v", err)
		}
		fmt.Println(hash)
	case "version":
		fmt.Printf("inkpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func runServe() {
	cfg, err := inkpress.ParseConfig()
	if err != nil {
		exitf("Error: %v", err)
	}
	app := inkpress.New(cfg, inkpress.DefaultViews(cfg))
	defer app.Close()
	if err := app.Start(); err != nil {
		exitf("Error: %v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`inkpress - a small personal-blog content manager

Usage:
  inkpress [command]

Commands:
  serve             Run the blog server (default)
  hashpw <password> Print a bcrypt hash for ADMIN_PASSWORD_HASH
  version           Print the inkpress version
  help              Show this help message`)
}
