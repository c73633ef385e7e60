package main

import "docsearch/app"

func main() {
	app.Execute()
}
