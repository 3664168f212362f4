package main

import (
	"log"

	_ "github.com/KimMachineGun/automemlimit"
	"github.com/socheatsok78/uxastunnel"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := uxastunnel.Run(); err != nil {
		log.Fatal(err)
	}
}
