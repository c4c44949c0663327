package main

import app "sapling-unit/internal/app"

func main() {
	app.Run()
}
