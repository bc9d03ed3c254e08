package main

import (
	"github.com/joho/godotenv"

	"github.com/visgate/visgate/api/cmd/visgate"
)

func main() {
	_ = godotenv.Load()
	visgate.Execute()
}
