package main

import "github.com/iliyamo/bakery-bookings/internal/cli"

func main() {
	cli.Execute()
}
