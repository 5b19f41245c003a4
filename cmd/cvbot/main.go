package main

import (
	"log"

	"kinobot/internal/app"
	"kinobot/internal/bot"
)

func main() {
	application, err := app.New(bot.KindCV)
	if err != nil {
		log.Fatal(err)
	}

	if err := application.Run(); err != nil {
		log.Fatal(err)
	}
}
