package main

import "github.com/pathanjalisrinivasan/Business-Startup-Advisor/cmd"

func main() {
	cmd.Execute()
}
