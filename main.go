package main

import "github.com/RyanBlaney/sonido-clave/cmd"

func main() {
	cmd.Execute()
}
