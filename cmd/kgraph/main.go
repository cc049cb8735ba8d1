// cmd/kgraph/main.go
package main

import (
	"kgraph/internal/app"
	"kgraph/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}
