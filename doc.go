/*
Package tesoro is a client for text adventures whose rules live in a logic
engine such as SWI-Prolog.

It keeps one interactive engine process alive for the whole game, writes each
player command as a framed goal, reads the reply up to a completion sentinel
and classifies it as ok, warning or error. A bounded wait means a runaway goal
can never freeze the caller, and a small cached state (location, inventory,
visited places) is kept in step with every successful move.

# Architecture

  - pkg/protocol: the framed line protocol (goal framing, sentinel detection).
  - pkg/reply: outcome classification and list extraction.
  - pkg/adapters/process: the persistent engine session.
  - pkg/adapters/oneshot: a process-per-command alternative.
  - pkg/game: the facade with verbs, queries, cached state and subscribers.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/tesoro"
		"github.com/aretw0/tesoro/pkg/adapters/process"
		"github.com/aretw0/tesoro/pkg/domain"
	)

	func main() {
		ctx := context.Background()

		cfg := process.DefaultConfig()
		cfg.RulesFile = "reglas.pl"

		client, err := tesoro.Open(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()

		client.Subscribe(func(s domain.State) {
			fmt.Println("Ahora en", s.Location)
		})

		fmt.Println(client.Move(ctx, "templo"))
		places, _ := client.Destinations(ctx)
		fmt.Println(places)
	}
*/
package tesoro
