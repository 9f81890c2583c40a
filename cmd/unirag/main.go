// Package main is the entry point for the unirag service.
//
// Usage:
//
//	unirag                    # serve the HTTP API
//	unirag index              # rebuild the vector index from the catalog
//	unirag ask "IT университет в Алматы"
//
//	@title			University RAG System API
//	@version		1.0
//	@description	Retrieval-augmented question answering over the Kazakhstan university catalog.
//	@BasePath		/
package main

import (
	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/unirag/cmd/unirag/app"
)

func main() {
	// .env 可选，缺失时忽略
	_ = godotenv.Load()

	app.NewApp().Run()
}
