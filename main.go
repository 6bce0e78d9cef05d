package main

import "github.com/cloudpost/mailmirror/internal/app"

func main() {
	app.Execute()
}
