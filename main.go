/*
Copyright © 2025 tieubaoca
*/
package main

import (
	"github.com/joho/godotenv"
	"github.com/tieubaoca/wisdom-rag/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// .env is optional, the environment may already be set
	_ = godotenv.Load()
}
