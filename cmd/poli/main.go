package main

import (
	"log"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
